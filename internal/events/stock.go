package events

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/models"

	"go.uber.org/zap"
)

// StockBroadcaster pushes a stock update to local subscribers.
type StockBroadcaster interface {
	PublishStockUpdate(ctx context.Context, productID string, newStock int) error
}

// StockNotifier sends stock updates through the broker instead of straight to
// the local hub, so that every running instance can fan them out.
type StockNotifier struct {
	publisher Publisher
}

func NewStockNotifier(publisher Publisher) *StockNotifier {
	return &StockNotifier{publisher: publisher}
}

func (n *StockNotifier) PublishStockUpdate(ctx context.Context, productID string, newStock int) error {
	update := models.StockUpdate{ProductID: productID, NewStock: newStock}
	if err := n.publisher.Publish(ctx, TypeStockUpdated, productID, update); err != nil {
		return fmt.Errorf("failed to publish stock update for %s: %w", productID, err)
	}
	return nil
}

// RelayStockUpdates subscribes to stock events and rebroadcasts each one into
// local.
func RelayStockUpdates(ctx context.Context, sub Subscriber, local StockBroadcaster, logger *zap.Logger) error {
	return sub.Subscribe(ctx, TypeStockUpdated, func(ctx context.Context, event Event) error {
		var update models.StockUpdate
		if err := json.Unmarshal(event.Payload, &update); err != nil {
			logger.Warn("malformed stock update", zap.String("key", event.Key), zap.Error(err))
			return err
		}
		return local.PublishStockUpdate(ctx, update.ProductID, update.NewStock)
	})
}
