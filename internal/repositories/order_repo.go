package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAllByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, from, to models.PaymentStatus) error
	Delete(ctx context.Context, id string) error
}

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// GetAllByUser returns a user's orders, newest first.
func (r *GORMOrderRepository) GetAllByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := conn(ctx, r.db).Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID returns an order with its line items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := conn(ctx, r.db).Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

// Create inserts the order together with its line items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := conn(ctx, r.db).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order in repository: %w", err)
	}
	return nil
}

// UpdateStatus moves an order from one payment status to another. It fails
// with ErrStaleOrder when the order is no longer in status from.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.PaymentStatus) error {
	res := conn(ctx, r.db).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s is not %s: %w", id, from, ErrStaleOrder)
	}
	return nil
}

// Delete removes an order and its line items.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	db := conn(ctx, r.db)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete items of order %s: %w", id, err)
	}
	res := db.Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s for deletion: %w", id, ErrRecordNotFound)
	}
	return nil
}
