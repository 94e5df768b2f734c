package events

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitPublisher publishes events to the topic exchange with the event type
// as routing key.
type RabbitPublisher struct {
	client *rabbitmq.Client
}

func NewRabbitPublisher(client *rabbitmq.Client) *RabbitPublisher {
	return &RabbitPublisher{client: client}
}

func (p *RabbitPublisher) Publish(_ context.Context, eventType, key string, payload any) error {
	event, err := newEvent(eventType, key, payload)
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return p.client.Publish(eventType, body)
}

// Close is a no-op; the client is owned by the caller.
func (p *RabbitPublisher) Close() error {
	return nil
}

// RabbitSubscriber consumes events from a private queue bound to the exchange.
type RabbitSubscriber struct {
	client *rabbitmq.Client
	logger *zap.Logger
}

func NewRabbitSubscriber(client *rabbitmq.Client, logger *zap.Logger) *RabbitSubscriber {
	return &RabbitSubscriber{client: client, logger: logger}
}

func (s *RabbitSubscriber) Subscribe(ctx context.Context, eventType string, handler Handler) error {
	return s.client.Consume(eventType, func(msg amqp.Delivery) error {
		var event Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			s.logger.Warn("dropping malformed event", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
			return err
		}
		return handler(ctx, event)
	})
}

func (s *RabbitSubscriber) Close() error {
	return nil
}
