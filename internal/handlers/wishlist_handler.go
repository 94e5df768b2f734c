package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WishlistHandler struct {
	service *services.WishlistService
	logger  *zap.Logger
}

func NewWishlistHandler(service *services.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{service: service, logger: logger}
}

// RegisterRoutes expects router to already require authentication.
func (h *WishlistHandler) RegisterRoutes(router fiber.Router) {
	wishlistRoutes := router.Group("/wishlist")
	wishlistRoutes.Get("/", h.HandleGetWishlist)
	wishlistRoutes.Post("/:productId", h.HandleAdd)
	wishlistRoutes.Delete("/:productId", h.HandleRemove)
}

func (h *WishlistHandler) HandleGetWishlist(c *fiber.Ctx) error {
	items, err := h.service.GetWishlist(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve wishlist", err)
	}
	return c.JSON(items)
}

func (h *WishlistHandler) HandleAdd(c *fiber.Ctx) error {
	item, err := h.service.AddToWishlist(c.UserContext(), middleware.CurrentUserID(c), c.Params("productId"))
	if err != nil {
		return writeError(c, h.logger, "Could not add to wishlist", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *WishlistHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.service.RemoveFromWishlist(c.UserContext(), middleware.CurrentUserID(c), c.Params("productId")); err != nil {
		return writeError(c, h.logger, "Could not remove from wishlist", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
