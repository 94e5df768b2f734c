package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/events"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// Checkout outcomes recorded in metrics.
const (
	checkoutSucceeded     = "succeeded"
	checkoutCartNotFound  = "cart_not_found"
	checkoutCartEmpty     = "cart_empty"
	checkoutConflict      = "conflict"
	checkoutPaymentFailed = "payment_failed"
	checkoutError         = "error"
)

// Webhook outcomes recorded in metrics.
const (
	webhookIgnored           = "ignored"
	webhookUnknownOrder      = "unknown_order"
	webhookDuplicate         = "duplicate"
	webhookIllegalTransition = "illegal_transition"
	webhookApplied           = "applied"
)

// CheckoutService turns carts into pending orders backed by a payment
// session and applies payment results reported by the provider.
type CheckoutService struct {
	tx             repositories.Transactor
	carts          *CartService
	orders         repositories.OrderRepository
	gateway        payments.Gateway
	publisher      events.Publisher
	metrics        *metrics.Metrics
	logger         *zap.Logger
	paymentTimeout time.Duration
}

func NewCheckoutService(tx repositories.Transactor, carts *CartService, orders repositories.OrderRepository,
	gateway payments.Gateway, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger,
	paymentTimeout time.Duration) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if paymentTimeout <= 0 {
		paymentTimeout = 10 * time.Second
	}
	return &CheckoutService{
		tx:             tx,
		carts:          carts,
		orders:         orders,
		gateway:        gateway,
		publisher:      publisher,
		metrics:        m,
		logger:         logger,
		paymentTimeout: paymentTimeout,
	}
}

// Checkout places an order for the contents of cartID on behalf of userID and
// returns where to pay for it. Order creation, the payment session request
// and emptying the cart commit together or not at all.
func (s *CheckoutService) Checkout(ctx context.Context, userID, cartID string) (*models.CheckoutSession, error) {
	var (
		order   *models.Order
		session *models.CheckoutSession
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.loadCart(ctx, cartID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return ErrCartEmpty
		}

		order, err = s.stage(ctx, cart, userID)
		if err != nil {
			return err
		}

		session, err = s.requestSession(ctx, order)
		if err != nil {
			return s.rollback(ctx, order, err)
		}
		return s.confirm(ctx, cart)
	})
	if err != nil {
		s.metrics.RecordCheckout(checkoutOutcome(err))
		return nil, err
	}

	s.metrics.RecordCheckout(checkoutSucceeded)
	s.carts.invalidate(cartID)
	s.publish(ctx, events.TypeOrderCreated, order.ID, events.OrderCreated{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Status:      order.Status.String(),
	})
	s.logger.Info("checkout completed",
		zap.String("order_id", order.ID),
		zap.String("cart_id", cartID),
		zap.String("user_id", userID),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	return &models.CheckoutSession{OrderID: order.ID, CheckoutURL: session.CheckoutURL}, nil
}

// stage snapshots the cart into a new pending order.
func (s *CheckoutService) stage(ctx context.Context, cart *models.Cart, userID string) (*models.Order, error) {
	order := models.NewOrderFromCart(cart, userID)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to stage order: %w", err)
	}
	return order, nil
}

func (s *CheckoutService) requestSession(ctx context.Context, order *models.Order) (*models.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	defer cancel()

	session, err := s.gateway.CreateCheckoutSession(ctx, order)
	if err != nil {
		var payErr *payments.PaymentError
		if !errors.As(err, &payErr) {
			err = &payments.PaymentError{Err: err}
		}
		return nil, err
	}
	return session, nil
}

// confirm empties the cart, provided nobody changed it since it was loaded.
func (s *CheckoutService) confirm(ctx context.Context, cart *models.Cart) error {
	if err := s.carts.bumpVersion(ctx, cart); err != nil {
		return err
	}
	return s.carts.carts.ClearItems(ctx, cart.ID)
}

// rollback removes the staged order and reports the payment failure. The cart
// is left as it was so the checkout can be retried.
func (s *CheckoutService) rollback(ctx context.Context, order *models.Order, cause error) error {
	s.logger.Warn("payment session failed, discarding order",
		zap.String("order_id", order.ID), zap.Error(cause))
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to discard order %s: %w", order.ID, err))
	}
	return cause
}

// HandleWebhookEvent applies a provider callback to the order it names.
// Unparseable events, unknown orders, replays and out-of-order transitions
// are logged and otherwise ignored.
func (s *CheckoutService) HandleWebhookEvent(ctx context.Context, req models.WebhookRequest) error {
	result, ok := s.gateway.ParseWebhookRequest(ctx, req)
	if !ok {
		s.metrics.RecordWebhook(webhookIgnored)
		return nil
	}

	order, err := s.orders.GetByID(ctx, result.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			s.logger.Warn("payment webhook for unknown order", zap.String("order_id", result.OrderID))
			s.metrics.RecordWebhook(webhookUnknownOrder)
			return nil
		}
		return err
	}

	if order.Status == result.Status {
		s.metrics.RecordWebhook(webhookDuplicate)
		return nil
	}
	if !order.Status.CanTransitionTo(result.Status) {
		s.logger.Warn("ignoring illegal payment transition",
			zap.String("order_id", order.ID),
			zap.Stringer("from", order.Status),
			zap.Stringer("to", result.Status))
		s.metrics.RecordWebhook(webhookIllegalTransition)
		return nil
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, result.Status); err != nil {
		if errors.Is(err, repositories.ErrStaleOrder) {
			// Another delivery moved the order first; evaluate again.
			return s.HandleWebhookEvent(ctx, req)
		}
		return err
	}

	s.metrics.RecordWebhook(webhookApplied)
	s.publish(ctx, events.TypeOrderPaymentUpdated, order.ID, events.OrderPaymentUpdated{
		OrderID: order.ID,
		From:    order.Status.String(),
		To:      result.Status.String(),
	})
	s.logger.Info("order payment status updated",
		zap.String("order_id", order.ID),
		zap.Stringer("from", order.Status),
		zap.Stringer("to", result.Status))
	return nil
}

func (s *CheckoutService) publish(ctx context.Context, eventType, key string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}

func checkoutOutcome(err error) string {
	var payErr *payments.PaymentError
	switch {
	case errors.Is(err, ErrCartNotFound):
		return checkoutCartNotFound
	case errors.Is(err, ErrCartEmpty):
		return checkoutCartEmpty
	case errors.Is(err, ErrCartConflict):
		return checkoutConflict
	case errors.As(err, &payErr):
		return checkoutPaymentFailed
	default:
		return checkoutError
	}
}
