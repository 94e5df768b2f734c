package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.GetAll(ctx)
}

// CreateCategory adds a category; names are unique.
func (s *CategoryService) CreateCategory(ctx context.Context, category *models.Category) error {
	if _, err := s.repo.GetByName(ctx, category.Name); err == nil {
		return fmt.Errorf("category '%s': %w", category.Name, ErrCategoryExists)
	} else if !errors.Is(err, repositories.ErrRecordNotFound) {
		return err
	}
	return s.repo.Create(ctx, category)
}
