package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"storefront/pkg/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes each event type to the topic of the same name.
type KafkaPublisher struct {
	client  *kafka.Client
	mu      sync.Mutex
	writers map[string]*kafkago.Writer
}

func NewKafkaPublisher(client *kafka.Client) *KafkaPublisher {
	return &KafkaPublisher{client: client, writers: make(map[string]*kafkago.Writer)}
}

func (p *KafkaPublisher) writer(topic string) *kafkago.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.writers[topic]
	if !ok {
		w = p.client.NewWriter(topic)
		p.writers[topic] = w
	}
	return w
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	if !p.client.Enabled() {
		return kafka.ErrDisabled
	}
	event, err := newEvent(eventType, key, payload)
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	if err := kafka.PublishJSON(ctx, p.writer(eventType), key, event); err != nil {
		return fmt.Errorf("failed to write %s event: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
	}
	p.writers = make(map[string]*kafkago.Writer)
	return errors.Join(errs...)
}

// KafkaSubscriber reads a topic with its own consumer group, so every
// instance sees every event.
type KafkaSubscriber struct {
	client  *kafka.Client
	groupID string
	logger  *zap.Logger

	mu      sync.Mutex
	readers []*kafkago.Reader
}

func NewKafkaSubscriber(client *kafka.Client, groupID string, logger *zap.Logger) *KafkaSubscriber {
	return &KafkaSubscriber{client: client, groupID: groupID, logger: logger}
}

func (s *KafkaSubscriber) Subscribe(ctx context.Context, eventType string, handler Handler) error {
	if !s.client.Enabled() {
		return kafka.ErrDisabled
	}
	reader := s.client.NewReader(eventType, s.groupID)
	s.mu.Lock()
	s.readers = append(s.readers, reader)
	s.mu.Unlock()

	go func() {
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return
				}
				s.logger.Error("error reading kafka message", zap.String("topic", eventType), zap.Error(err))
				if ctx.Err() != nil {
					return
				}
				continue
			}

			var event Event
			if err := json.Unmarshal(m.Value, &event); err != nil {
				s.logger.Warn("dropping malformed event", zap.String("topic", eventType), zap.Error(err))
				continue
			}
			if err := handler(ctx, event); err != nil {
				s.logger.Error("event handler failed", zap.String("topic", eventType), zap.Error(err))
			}
		}
	}()
	return nil
}

func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, r := range s.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.readers = nil
	return errors.Join(errs...)
}
