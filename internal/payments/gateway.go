package payments

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// Gateway is the payment provider as seen by checkout.
type Gateway interface {
	// CreateCheckoutSession opens a hosted payment page for order.
	CreateCheckoutSession(ctx context.Context, order *models.Order) (*models.CheckoutSession, error)
	// ParseWebhookRequest authenticates and decodes a provider callback. It
	// returns false for malformed, unsigned or irrelevant events.
	ParseWebhookRequest(ctx context.Context, req models.WebhookRequest) (*models.PaymentResult, bool)
}

// PaymentError reports that the provider could not create a checkout session.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment gateway: %v", e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}
