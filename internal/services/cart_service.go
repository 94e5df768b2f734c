package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/cache"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService manages anonymous shopping carts. Every mutation runs in a
// transaction that also bumps the cart version.
type CartService struct {
	tx       repositories.Transactor
	carts    repositories.CartRepository
	products repositories.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group
	metrics  *metrics.Metrics
	logger   *zap.Logger

	fillMu sync.Mutex
	fills  map[string]*cacheFill
}

// cacheFill tracks the cache fills in progress for one cart. gen moves on
// every invalidation so a fill that loaded older rows never stays cached.
type cacheFill struct {
	gen  uint64
	refs int
}

func NewCartService(tx repositories.Transactor, carts repositories.CartRepository, products repositories.ProductRepository,
	cartCache cache.CartCache, m *metrics.Metrics, logger *zap.Logger) *CartService {
	if cartCache == nil {
		cartCache = cache.NopCache{}
	}
	return &CartService{
		tx:       tx,
		carts:    carts,
		products: products,
		cache:    cartCache,
		metrics:  m,
		logger:   logger,
		fills:    make(map[string]*cacheFill),
	}
}

// CreateCart allocates a new empty cart.
func (s *CartService) CreateCart(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// GetCart returns the cart with its items, reading through the cache.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*models.Cart, error) {
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		ctx := context.WithoutCancel(ctx)

		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			s.metrics.RecordCartCache(true)
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.String("cart_id", cartID), zap.Error(err))
		}
		s.metrics.RecordCartCache(false)

		gen := s.beginFill(cartID)
		defer s.endFill(cartID)

		cart, err = s.loadCart(ctx, cartID)
		if err != nil {
			return nil, err
		}
		s.fillCache(ctx, cart, gen)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

// fillCache stores cart unless the cart was invalidated after it was loaded.
// An invalidation racing with the write is caught by the second check.
func (s *CartService) fillCache(ctx context.Context, cart *models.Cart, gen uint64) {
	if s.fillGen(cart.ID) != gen {
		return
	}
	if err := s.cache.Set(ctx, cart); err != nil {
		s.logger.Warn("cart cache set failed", zap.String("cart_id", cart.ID), zap.Error(err))
		return
	}
	if s.fillGen(cart.ID) != gen {
		if err := s.cache.Delete(ctx, cart.ID); err != nil {
			s.logger.Warn("cart cache invalidate failed", zap.String("cart_id", cart.ID), zap.Error(err))
		}
	}
}

func (s *CartService) beginFill(cartID string) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	f, ok := s.fills[cartID]
	if !ok {
		f = &cacheFill{}
		s.fills[cartID] = f
	}
	f.refs++
	return f.gen
}

func (s *CartService) endFill(cartID string) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if f, ok := s.fills[cartID]; ok {
		f.refs--
		if f.refs <= 0 {
			delete(s.fills, cartID)
		}
	}
}

func (s *CartService) fillGen(cartID string) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if f, ok := s.fills[cartID]; ok {
		return f.gen
	}
	return 0
}

// AddItem puts one unit of productID into the cart, merging with an existing
// line for the same product.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string) (*models.CartItem, error) {
	var result models.CartItem
	err := s.mutate(ctx, cartID, func(ctx context.Context, cart *models.Cart) error {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, repositories.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		item := cart.FindItem(productID)
		if item != nil {
			item.Quantity++
		} else {
			item = &models.CartItem{
				CartID:      cart.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    1,
				UnitPrice:   product.Price,
			}
		}
		if err := s.carts.SaveItem(ctx, item); err != nil {
			return err
		}
		result = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateItemQuantity sets the quantity of an existing line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var result models.CartItem
	err := s.mutate(ctx, cartID, func(ctx context.Context, cart *models.Cart) error {
		item := cart.FindItem(productID)
		if item == nil {
			return ErrCartItemNotFound
		}
		item.Quantity = quantity
		if err := s.carts.SaveItem(ctx, item); err != nil {
			return err
		}
		result = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveItem drops the line for productID.
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) error {
	return s.mutate(ctx, cartID, func(ctx context.Context, cart *models.Cart) error {
		if err := s.carts.DeleteItem(ctx, cart.ID, productID); err != nil {
			if errors.Is(err, repositories.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}
		return nil
	})
}

// ClearCart removes every line but keeps the cart. Clearing an empty cart
// succeeds.
func (s *CartService) ClearCart(ctx context.Context, cartID string) error {
	return s.mutate(ctx, cartID, func(ctx context.Context, cart *models.Cart) error {
		return s.carts.ClearItems(ctx, cart.ID)
	})
}

// mutate loads the cart inside a transaction, applies fn and bumps the cart
// version against the value that was read.
func (s *CartService) mutate(ctx context.Context, cartID string, fn func(ctx context.Context, cart *models.Cart) error) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.loadCart(ctx, cartID)
		if err != nil {
			return err
		}
		if err := fn(ctx, cart); err != nil {
			return err
		}
		return s.bumpVersion(ctx, cart)
	})
	if err != nil {
		return err
	}
	s.invalidate(cartID)
	return nil
}

func (s *CartService) loadCart(ctx context.Context, cartID string) (*models.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart %s: %w", cartID, ErrCartNotFound)
		}
		return nil, err
	}
	return cart, nil
}

func (s *CartService) bumpVersion(ctx context.Context, cart *models.Cart) error {
	if err := s.carts.BumpVersion(ctx, cart.ID, cart.Version); err != nil {
		if errors.Is(err, repositories.ErrStaleCart) {
			return fmt.Errorf("cart %s: %w", cart.ID, ErrCartConflict)
		}
		return err
	}
	cart.Version++
	return nil
}

// invalidate drops the cached cart after a committed change. Fills already
// loading the old rows are told not to keep their result.
func (s *CartService) invalidate(cartID string) {
	s.fillMu.Lock()
	if f, ok := s.fills[cartID]; ok {
		f.gen++
	}
	s.fillMu.Unlock()
	s.sfg.Forget(cartID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.String("cart_id", cartID), zap.Error(err))
	}
}
