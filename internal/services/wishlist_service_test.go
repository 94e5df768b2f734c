package services_test

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistService(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	products := repositories.NewGORMProductRepository(db)
	svc := services.NewWishlistService(repositories.NewGORMWishlistRepository(db), products)

	lamp := &models.Product{Name: "Lamp", Price: decimal.RequireFromString("30.00"), Stock: 3}
	require.NoError(t, products.Create(ctx, lamp))

	_, err := svc.AddToWishlist(ctx, "alice", "missing")
	assert.ErrorIs(t, err, services.ErrProductNotFound)

	item, err := svc.AddToWishlist(ctx, "alice", lamp.ID)
	require.NoError(t, err)
	require.NotNil(t, item.Product)
	assert.Equal(t, "Lamp", item.Product.Name)

	_, err = svc.AddToWishlist(ctx, "alice", lamp.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyInWishlist)

	items, err := svc.GetWishlist(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, lamp.ID, items[0].Product.ID)

	others, err := svc.GetWishlist(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, svc.RemoveFromWishlist(ctx, "alice", lamp.ID))
	assert.ErrorIs(t, svc.RemoveFromWishlist(ctx, "alice", lamp.ID), services.ErrWishlistItemNotFound)
}
