package cache

import (
	"context"
	"errors"

	"storefront/internal/models"
)

// CartCache is a read-through cache for carts keyed by cart ID.
type CartCache interface {
	Get(ctx context.Context, cartID string) (*models.Cart, error)
	Set(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, cartID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache always misses. It is used when no Redis address is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*models.Cart, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, *models.Cart) error           { return nil }
func (NopCache) Delete(context.Context, string) error              { return nil }
