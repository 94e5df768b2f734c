package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memoryBus delivers published events synchronously to subscribed handlers.
type memoryBus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	events   []Event
}

func newMemoryBus() *memoryBus {
	return &memoryBus{handlers: make(map[string][]Handler)}
}

func (b *memoryBus) Publish(ctx context.Context, eventType, key string, payload any) error {
	event, err := newEvent(eventType, key, payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.events = append(b.events, event)
	handlers := append([]Handler(nil), b.handlers[eventType]...)
	b.mu.Unlock()
	for _, h := range handlers {
		_ = h(ctx, event)
	}
	return nil
}

func (b *memoryBus) Subscribe(_ context.Context, eventType string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

func (b *memoryBus) Close() error { return nil }

type recordingBroadcaster struct {
	updates []models.StockUpdate
}

func (r *recordingBroadcaster) PublishStockUpdate(_ context.Context, productID string, newStock int) error {
	r.updates = append(r.updates, models.StockUpdate{ProductID: productID, NewStock: newStock})
	return nil
}

func TestStockNotifier_RelaysThroughBroker(t *testing.T) {
	bus := newMemoryBus()
	instanceA := &recordingBroadcaster{}
	instanceB := &recordingBroadcaster{}
	logger := zaptest.NewLogger(t)

	require.NoError(t, RelayStockUpdates(context.Background(), bus, instanceA, logger))
	require.NoError(t, RelayStockUpdates(context.Background(), bus, instanceB, logger))

	notifier := NewStockNotifier(bus)
	require.NoError(t, notifier.PublishStockUpdate(context.Background(), "p1", 3))

	want := []models.StockUpdate{{ProductID: "p1", NewStock: 3}}
	assert.Equal(t, want, instanceA.updates)
	assert.Equal(t, want, instanceB.updates)

	require.Len(t, bus.events, 1)
	assert.Equal(t, TypeStockUpdated, bus.events[0].Type)
	assert.Equal(t, "p1", bus.events[0].Key)
	assert.JSONEq(t, `{"productId":"p1","newStock":3}`, string(bus.events[0].Payload))
}

func TestRelayStockUpdates_MalformedPayload(t *testing.T) {
	bus := newMemoryBus()
	local := &recordingBroadcaster{}
	require.NoError(t, RelayStockUpdates(context.Background(), bus, local, zaptest.NewLogger(t)))

	handler := bus.handlers[TypeStockUpdated][0]
	err := handler(context.Background(), Event{Type: TypeStockUpdated, Payload: json.RawMessage(`"nope"`)})
	assert.Error(t, err)
	assert.Empty(t, local.updates)
}

type failingPublisher struct{ NopPublisher }

func (failingPublisher) Publish(context.Context, string, string, any) error {
	return errors.New("broker down")
}

func TestStockNotifier_PublishError(t *testing.T) {
	err := NewStockNotifier(failingPublisher{}).PublishStockUpdate(context.Background(), "p1", 1)
	assert.ErrorContains(t, err, "broker down")
}

func TestNewEvent_Envelope(t *testing.T) {
	event, err := newEvent(TypeOrderCreated, "o1", OrderCreated{OrderID: "o1", UserID: "u1", TotalAmount: "20.00", Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, TypeOrderCreated, event.Type)
	assert.False(t, event.OccurredAt.IsZero())
	assert.JSONEq(t, `{"orderId":"o1","userId":"u1","totalAmount":"20.00","status":"PENDING"}`, string(event.Payload))
}
