package services

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// WishlistService manages the products a user has saved for later.
type WishlistService struct {
	wishlist repositories.WishlistRepository
	products repositories.ProductRepository
}

func NewWishlistService(wishlist repositories.WishlistRepository, products repositories.ProductRepository) *WishlistService {
	return &WishlistService{wishlist: wishlist, products: products}
}

func (s *WishlistService) GetWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	return s.wishlist.GetByUser(ctx, userID)
}

func (s *WishlistService) AddToWishlist(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	exists, err := s.wishlist.Exists(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyInWishlist
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.wishlist.Create(ctx, item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

func (s *WishlistService) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	if err := s.wishlist.Delete(ctx, userID, productID); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrWishlistItemNotFound
		}
		return err
	}
	return nil
}
