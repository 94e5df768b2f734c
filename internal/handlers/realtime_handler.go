package handlers

import (
	"storefront/internal/realtime"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RealtimeHandler streams hub topics to WebSocket clients.
type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger}
}

func (h *RealtimeHandler) RegisterRoutes(router fiber.Router) {
	ws := router.Group("/ws")
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/topic/inventory/:productId", websocket.New(h.HandleInventory))
}

// HandleInventory pushes {productId, newStock} messages for one product until
// the client goes away.
func (h *RealtimeHandler) HandleInventory(conn *websocket.Conn) {
	productID := conn.Params("productId")
	sub := h.hub.Subscribe(realtime.InventoryTopic(productID))
	defer h.hub.Unsubscribe(sub)
	h.logger.Debug("inventory subscriber connected", zap.String("product_id", productID))

	// Reads only detect the close; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("inventory subscriber write failed", zap.String("product_id", productID), zap.Error(err))
				return
			}
		case <-closed:
			h.logger.Debug("inventory subscriber disconnected", zap.String("product_id", productID))
			return
		}
	}
}
