package services

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// OrderService exposes a user's own orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// GetOrdersForUser lists userID's orders, newest first.
func (s *OrderService) GetOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.GetAllByUser(ctx, userID)
}

// GetOrderForUser returns one order if it belongs to userID. Orders of other
// users are reported as not found.
func (s *OrderService) GetOrderForUser(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
