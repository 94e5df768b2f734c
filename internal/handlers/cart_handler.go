package handlers

import (
	"errors"

	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler serves anonymous shopping carts addressed by id.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(service *services.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{service: service, validate: validator.New(), logger: logger}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/carts")
	cartRoutes.Post("/", h.HandleCreateCart)
	cartRoutes.Get("/:cartId", h.HandleGetCart)
	cartRoutes.Delete("/:cartId/items", h.HandleClearCart)
	cartRoutes.Post("/:cartId/items", h.HandleAddItem)
	cartRoutes.Put("/:cartId/items/:productId", h.HandleUpdateItem)
	cartRoutes.Delete("/:cartId/items/:productId", h.HandleRemoveItem)
}

func (h *CartHandler) HandleCreateCart(c *fiber.Ctx) error {
	cart, err := h.service.CreateCart(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, "Could not create cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart.ToDto())
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.UserContext(), c.Params("cartId"))
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve cart", err)
	}
	return c.JSON(cart.ToDto())
}

// AddItemRequest names the product to add one unit of.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// HandleAddItem adds one unit of a product. An unknown product is a bad
// request, an unknown cart is not found.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}
	item, err := h.service.AddItem(c.UserContext(), c.Params("cartId"), req.ProductID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return writeErrorStatus(c, h.logger, fiber.StatusBadRequest, "Could not add item to cart", err)
		}
		return writeError(c, h.logger, "Could not add item to cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item.ToDto())
}

// UpdateItemRequest sets the quantity of a cart line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}
	item, err := h.service.UpdateItemQuantity(c.UserContext(), c.Params("cartId"), c.Params("productId"), req.Quantity)
	if err != nil {
		return writeError(c, h.logger, "Could not update cart item", err)
	}
	return c.JSON(item.ToDto())
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(c.UserContext(), c.Params("cartId"), c.Params("productId")); err != nil {
		return writeError(c, h.logger, "Could not remove cart item", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.ClearCart(c.UserContext(), c.Params("cartId")); err != nil {
		return writeError(c, h.logger, "Could not clear cart", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
