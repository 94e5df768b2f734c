package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"storefront/internal/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	signatureHeader = "Stripe-Signature"
	orderIDKey      = "order_id"
)

// StripeConfig holds the Stripe credentials and redirect targets.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

// StripeGateway creates Stripe Checkout sessions and verifies Stripe webhooks.
type StripeGateway struct {
	api    *client.API
	cfg    StripeConfig
	logger *zap.Logger
}

func NewStripeGateway(cfg StripeConfig, backends *stripe.Backends, logger *zap.Logger) *StripeGateway {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &StripeGateway{api: api, cfg: cfg, logger: logger}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, order *models.Order) (*models.CheckoutSession, error) {
	successURL, err := g.successURL(order.ID)
	if err != nil {
		return nil, &PaymentError{Err: err}
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{orderIDKey: order.ID},
		},
	}
	params.Context = ctx
	params.AddMetadata(orderIDKey, order.ID)

	for _, item := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.cfg.Currency),
				UnitAmount: stripe.Int64(item.UnitPrice.Shift(2).Round(0).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
			},
		})
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			g.logger.Error("stripe rejected checkout session",
				zap.String("order_id", order.ID),
				zap.String("code", string(stripeErr.Code)),
				zap.String("type", string(stripeErr.Type)))
		}
		return nil, &PaymentError{Err: err}
	}
	return &models.CheckoutSession{OrderID: order.ID, CheckoutURL: sess.URL}, nil
}

// successURL adds orderId to the configured success URL, keeping any query
// parameters it already has.
func (g *StripeGateway) successURL(orderID string) (string, error) {
	u, err := url.Parse(g.cfg.SuccessURL)
	if err != nil {
		return "", fmt.Errorf("invalid checkout success url %q: %w", g.cfg.SuccessURL, err)
	}
	q := u.Query()
	q.Set("orderId", orderID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *StripeGateway) ParseWebhookRequest(ctx context.Context, req models.WebhookRequest) (*models.PaymentResult, bool) {
	event, err := webhook.ConstructEventWithOptions(req.Payload, req.Header(signatureHeader), g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.logger.Warn("rejecting stripe webhook", zap.Error(err))
		return nil, false
	}

	var status models.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded":
		status = models.PaymentStatusPaid
	case "payment_intent.payment_failed":
		status = models.PaymentStatusFailed
	case "payment_intent.canceled":
		status = models.PaymentStatusCancelled
	default:
		g.logger.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil, false
	}

	var intent stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &intent) != nil {
		g.logger.Warn("malformed payment intent in stripe event", zap.String("event_id", event.ID))
		return nil, false
	}
	orderID := intent.Metadata[orderIDKey]
	if orderID == "" {
		g.logger.Warn("stripe event without order id", zap.String("event_id", event.ID))
		return nil, false
	}
	return &models.PaymentResult{OrderID: orderID, Status: status}, true
}
