package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/payments"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a service error to an HTTP status. Payment failures and
// unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCartNotFound),
		errors.Is(err, services.ErrCartItemNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrWishlistItemNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrCartEmpty),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrCartConflict),
		errors.Is(err, services.ErrAlreadyInWishlist),
		errors.Is(err, services.ErrCategoryExists):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError sends the standard {"message", "error"} body for err using the
// status statusFor picks.
func writeError(c *fiber.Ctx, logger *zap.Logger, message string, err error) error {
	return writeErrorStatus(c, logger, statusFor(err), message, err)
}

func writeErrorStatus(c *fiber.Ctx, logger *zap.Logger, status int, message string, err error) error {
	detail := err.Error()
	var payErr *payments.PaymentError
	if status >= fiber.StatusInternalServerError && !errors.As(err, &payErr) {
		logger.Error(message, zap.String("path", c.Path()), zap.Error(err))
		detail = "internal server error"
	} else {
		logger.Debug(message, zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   detail,
	})
}

// bindBody parses the JSON body into dst and validates it. When ok is false
// the error response has already been written and err is what the handler
// should return.
func bindBody(c *fiber.Ctx, validate *validator.Validate, dst any) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}
