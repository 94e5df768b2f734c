package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	Create(ctx context.Context, cart *models.Cart) error
	GetByID(ctx context.Context, id string) (*models.Cart, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID string) error
	ClearItems(ctx context.Context, cartID string) error
	BumpVersion(ctx context.Context, cartID string, expected int64) error
}

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// Create inserts an empty cart with a fresh ID.
func (r *GORMCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := conn(ctx, r.db).Omit("Items").Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// GetByID loads a cart with its items in insertion order.
func (r *GORMCartRepository) GetByID(ctx context.Context, id string) (*models.Cart, error) {
	var cart models.Cart
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&cart, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart with ID %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get cart %s: %w", id, err)
	}
	return &cart, nil
}

// SaveItem inserts a new line or updates an existing one.
func (r *GORMCartRepository) SaveItem(ctx context.Context, item *models.CartItem) error {
	if err := conn(ctx, r.db).Save(item).Error; err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

// DeleteItem removes the line for productID.
func (r *GORMCartRepository) DeleteItem(ctx context.Context, cartID, productID string) error {
	res := conn(ctx, r.db).Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s in cart %s: %w", productID, cartID, ErrRecordNotFound)
	}
	return nil
}

// ClearItems removes every line of the cart. Clearing an empty cart is not an error.
func (r *GORMCartRepository) ClearItems(ctx context.Context, cartID string) error {
	if err := conn(ctx, r.db).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}

// BumpVersion increments the cart version if it still equals expected.
func (r *GORMCartRepository) BumpVersion(ctx context.Context, cartID string, expected int64) error {
	res := conn(ctx, r.db).Model(&models.Cart{}).
		Where("id = ? AND version = ?", cartID, expected).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to bump cart version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart %s at version %d: %w", cartID, expected, ErrStaleCart)
	}
	return nil
}
