package handlers

import (
	"errors"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CheckoutHandler starts checkouts and receives payment provider callbacks.
type CheckoutHandler struct {
	service  *services.CheckoutService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCheckoutHandler(service *services.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: service, validate: validator.New(), logger: logger}
}

// RegisterRoutes mounts POST /checkout behind auth. The webhook stays public;
// the gateway authenticates it by signature.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/webhook", h.HandleWebhook)
	checkoutRoutes.Post("/", auth, h.HandleCheckout)
}

// CheckoutRequest names the cart to check out.
type CheckoutRequest struct {
	CartID string `json:"cartId" validate:"required"`
}

// HandleCheckout places an order for the cart and returns the payment URL.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}

	session, err := h.service.Checkout(c.UserContext(), middleware.CurrentUserID(c), req.CartID)
	if err != nil {
		var payErr *payments.PaymentError
		switch {
		case errors.Is(err, services.ErrCartNotFound), errors.Is(err, services.ErrCartEmpty):
			return writeErrorStatus(c, h.logger, fiber.StatusBadRequest, "Checkout failed", err)
		case errors.As(err, &payErr):
			return writeErrorStatus(c, h.logger, fiber.StatusInternalServerError, "Error creating a checkout session", err)
		default:
			return writeError(c, h.logger, "Checkout failed", err)
		}
	}
	return c.JSON(session)
}

// HandleWebhook hands the raw callback to the checkout service. Anything the
// service does not recognise is acknowledged so the provider stops retrying.
func (h *CheckoutHandler) HandleWebhook(c *fiber.Ctx) error {
	headers := make(map[string]string)
	for name, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	req := models.WebhookRequest{
		Headers: headers,
		// fasthttp reuses the request buffer after the handler returns.
		Payload: append([]byte(nil), c.Body()...),
	}

	if err := h.service.HandleWebhookEvent(c.UserContext(), req); err != nil {
		return writeError(c, h.logger, "Could not process webhook", err)
	}
	return c.SendStatus(fiber.StatusOK)
}
