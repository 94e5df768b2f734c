package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"storefront/internal/models"

	"go.uber.org/zap"
)

const defaultBufferSize = 16

// InventoryTopic is the topic stock updates for productID are published on.
func InventoryTopic(productID string) string {
	return "/topic/inventory/" + productID
}

// Subscription receives the messages published to one topic.
type Subscription struct {
	topic string
	ch    chan []byte
}

// C returns the channel messages are delivered on. It is closed on Unsubscribe.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

func (s *Subscription) Topic() string {
	return s.topic
}

// Hub fans messages out to in-process topic subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu         sync.RWMutex
	topics     map[string]map[*Subscription]struct{}
	bufferSize int
	logger     *zap.Logger
}

func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		topics:     make(map[string]map[*Subscription]struct{}),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan []byte, h.bufferSize)}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is safe.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
}

// Publish delivers payload to every current subscriber of topic and reports
// how many received it and how many were skipped.
func (h *Hub) Publish(topic string, payload []byte) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- payload:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

// Subscribers returns the number of subscribers on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// PublishStockUpdate broadcasts {productId, newStock} on the product's
// inventory topic.
func (h *Hub) PublishStockUpdate(_ context.Context, productID string, newStock int) error {
	payload, err := json.Marshal(models.StockUpdate{ProductID: productID, NewStock: newStock})
	if err != nil {
		return fmt.Errorf("failed to marshal stock update: %w", err)
	}
	delivered, dropped := h.Publish(InventoryTopic(productID), payload)
	h.logger.Debug("published stock update",
		zap.String("product_id", productID),
		zap.Int("new_stock", newStock),
		zap.Int("delivered", delivered),
		zap.Int("dropped", dropped))
	return nil
}
