package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHub_PublishStockUpdate(t *testing.T) {
	hub := NewHub(4, zaptest.NewLogger(t))
	sub := hub.Subscribe(InventoryTopic("p1"))
	other := hub.Subscribe(InventoryTopic("p2"))

	require.NoError(t, hub.PublishStockUpdate(context.Background(), "p1", 7))

	msg := <-sub.C()
	var update models.StockUpdate
	require.NoError(t, json.Unmarshal(msg, &update))
	assert.Equal(t, models.StockUpdate{ProductID: "p1", NewStock: 7}, update)
	assert.JSONEq(t, `{"productId":"p1","newStock":7}`, string(msg))

	assert.Len(t, other.C(), 0)
}

func TestHub_FullBufferDrops(t *testing.T) {
	hub := NewHub(1, zaptest.NewLogger(t))
	slow := hub.Subscribe("t")

	delivered, dropped := hub.Publish("t", []byte("1"))
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 0, dropped)

	delivered, dropped = hub.Publish("t", []byte("2"))
	assert.Equal(t, 0, delivered)
	assert.Equal(t, 1, dropped)

	assert.Equal(t, []byte("1"), <-slow.C())
}

func TestHub_NoReplayForLateSubscribers(t *testing.T) {
	hub := NewHub(4, zaptest.NewLogger(t))
	delivered, _ := hub.Publish("t", []byte("early"))
	assert.Zero(t, delivered)

	late := hub.Subscribe("t")
	assert.Len(t, late.C(), 0)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(4, zaptest.NewLogger(t))
	sub := hub.Subscribe("t")
	assert.Equal(t, 1, hub.Subscribers("t"))

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.Subscribers("t"))

	_, open := <-sub.C()
	assert.False(t, open)

	delivered, dropped := hub.Publish("t", []byte("x"))
	assert.Zero(t, delivered)
	assert.Zero(t, dropped)
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	hub := NewHub(8, zaptest.NewLogger(t))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe("t")
			hub.Unsubscribe(sub)
		}()
		go func() {
			defer wg.Done()
			hub.Publish("t", []byte("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Subscribers("t"))
}
