package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TypeOrderCreated        = "order.created"
	TypeOrderPaymentUpdated = "order.payment_updated"
	TypeStockUpdated        = "inventory.stock_updated"
)

// Event is the envelope every broker message carries.
type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Handler processes one consumed event.
type Handler func(ctx context.Context, event Event) error

// Publisher sends domain events to the broker.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
	Close() error
}

// Subscriber delivers events of one type to a handler until ctx is done or
// the subscriber is closed.
type Subscriber interface {
	Subscribe(ctx context.Context, eventType string, handler Handler) error
	Close() error
}

func newEvent(eventType, key string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: raw}, nil
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

// OrderCreated is the payload of TypeOrderCreated.
type OrderCreated struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	TotalAmount string `json:"totalAmount"`
	Status      string `json:"status"`
}

// OrderPaymentUpdated is the payload of TypeOrderPaymentUpdated.
type OrderPaymentUpdated struct {
	OrderID string `json:"orderId"`
	From    string `json:"from"`
	To      string `json:"to"`
}
