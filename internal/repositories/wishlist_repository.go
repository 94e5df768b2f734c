package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// WishlistRepository defines the interface for wishlist data access.
type WishlistRepository interface {
	GetByUser(ctx context.Context, userID string) ([]models.WishlistItem, error)
	Exists(ctx context.Context, userID, productID string) (bool, error)
	Create(ctx context.Context, item *models.WishlistItem) error
	Delete(ctx context.Context, userID, productID string) error
}

// GORMWishlistRepository is a GORM implementation of WishlistRepository.
type GORMWishlistRepository struct {
	db *gorm.DB
}

// NewGORMWishlistRepository creates a new instance of GORMWishlistRepository.
func NewGORMWishlistRepository(db *gorm.DB) *GORMWishlistRepository {
	return &GORMWishlistRepository{db: db}
}

func (r *GORMWishlistRepository) GetByUser(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := conn(ctx, r.db).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist for user %s: %w", userID, err)
	}
	return items, nil
}

func (r *GORMWishlistRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

func (r *GORMWishlistRepository) Create(ctx context.Context, item *models.WishlistItem) error {
	if err := conn(ctx, r.db).Omit("Product").Create(item).Error; err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

func (r *GORMWishlistRepository) Delete(ctx context.Context, userID, productID string) error {
	res := conn(ctx, r.db).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s in wishlist of %s: %w", productID, userID, ErrRecordNotFound)
	}
	return nil
}
