package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// StockNotifier tells subscribers about a product's new stock level. Delivery
// is best effort.
type StockNotifier interface {
	PublishStockUpdate(ctx context.Context, productID string, newStock int) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
	notifier   StockNotifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository,
	notifier StockNotifier, m *metrics.Metrics, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
	}
}

// GetAllProducts lists products, optionally only those in one category.
func (s *ProductService) GetAllProducts(ctx context.Context, categoryID *uint) ([]models.Product, error) {
	return s.repo.GetAll(ctx, categoryID)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	return nil
}

// UpdateProduct overwrites an existing product and announces a stock change.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	existing, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		return err
	}
	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if existing.Stock != product.Stock {
		s.notifyStock(ctx, product.ID, product.Stock)
	}
	return nil
}

// UpdateStock sets a product's stock level and announces it.
func (s *ProductService) UpdateStock(ctx context.Context, id string, stock int) (*models.Product, error) {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStock(ctx, id, stock); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	changed := product.Stock != stock
	product.Stock = stock
	if changed {
		s.notifyStock(ctx, id, stock)
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return fmt.Errorf("category %d: %w", *categoryID, ErrCategoryNotFound)
		}
		return err
	}
	return nil
}

func (s *ProductService) notifyStock(ctx context.Context, productID string, stock int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishStockUpdate(ctx, productID, stock); err != nil {
		s.logger.Warn("failed to publish stock update", zap.String("product_id", productID), zap.Error(err))
		return
	}
	s.metrics.RecordStockUpdate()
}
