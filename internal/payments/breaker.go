package payments

import (
	"context"
	"errors"
	"time"

	"storefront/internal/models"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerGateway stops calling the provider after repeated session failures.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[*models.CheckoutSession]
}

func NewBreakerGateway(next Gateway, maxFailures uint32, openTimeout time.Duration, logger *zap.Logger) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerGateway{next: next, cb: gobreaker.NewCircuitBreaker[*models.CheckoutSession](settings)}
}

func (g *BreakerGateway) CreateCheckoutSession(ctx context.Context, order *models.Order) (*models.CheckoutSession, error) {
	sess, err := g.cb.Execute(func() (*models.CheckoutSession, error) {
		return g.next.CreateCheckoutSession(ctx, order)
	})
	if err != nil {
		var payErr *PaymentError
		if errors.As(err, &payErr) {
			return nil, err
		}
		return nil, &PaymentError{Err: err}
	}
	return sess, nil
}

func (g *BreakerGateway) ParseWebhookRequest(ctx context.Context, req models.WebhookRequest) (*models.PaymentResult, bool) {
	return g.next.ParseWebhookRequest(ctx, req)
}

// State exposes the breaker state for health reporting.
func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}
