package services_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProductService(repo *MockProductRepository, cats *MockCategoryRepository, notifier *MockStockNotifier, m *metrics.Metrics) *services.ProductService {
	return services.NewProductService(repo, cats, notifier, m, zap.NewNop())
}

func TestProductService_GetAllProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockCategoryRepository), new(MockStockNotifier), nil)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100},
		{ID: "2", Name: "Product B", Price: decimal.NewFromInt(20), Stock: 50},
	}
	categoryID := uint(3)

	mockRepo.On("GetAll", ctx, (*uint)(nil)).Return(expectedProducts, nil).Once()
	mockRepo.On("GetAll", ctx, &categoryID).Return(expectedProducts[:1], nil).Once()

	products, err := service.GetAllProducts(ctx, nil)
	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)

	products, err = service.GetAllProducts(ctx, &categoryID)
	assert.NoError(t, err)
	assert.Len(t, products, 1)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockCategoryRepository), new(MockStockNotifier), nil)

	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100}
	mockRepo.On("GetByID", ctx, "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", ctx, "99").Return(nil, repositories.ErrRecordNotFound).Once()
	product, err = service.GetProductByID(ctx, "99")
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.Nil(t, product)

	boom := errors.New("connection reset")
	mockRepo.On("GetByID", ctx, "2").Return(nil, boom).Once()
	_, err = service.GetProductByID(ctx, "2")
	assert.ErrorIs(t, err, boom)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_UnknownCategory(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockCats := new(MockCategoryRepository)
	service := newProductService(mockRepo, mockCats, new(MockStockNotifier), nil)

	categoryID := uint(42)
	mockCats.On("GetByID", ctx, categoryID).Return(nil, repositories.ErrRecordNotFound).Once()

	err := service.CreateProduct(ctx, &models.Product{Name: "Lamp", Price: decimal.NewFromInt(5), CategoryID: &categoryID})
	assert.ErrorIs(t, err, services.ErrCategoryNotFound)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_UpdateStock_Notifies(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	notifier := new(MockStockNotifier)
	m := metrics.New()
	service := newProductService(mockRepo, new(MockCategoryRepository), notifier, m)

	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Stock: 10}, nil).Once()
	mockRepo.On("UpdateStock", ctx, "p1", 4).Return(nil).Once()
	notifier.On("PublishStockUpdate", ctx, "p1", 4).Return(nil).Once()

	product, err := service.UpdateStock(ctx, "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockUpdates))

	// Unchanged stock does not notify
	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Stock: 4}, nil).Once()
	mockRepo.On("UpdateStock", ctx, "p1", 4).Return(nil).Once()
	_, err = service.UpdateStock(ctx, "p1", 4)
	require.NoError(t, err)

	mockRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "PublishStockUpdate", 1)
}

func TestProductService_UpdateStock_NotifierFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	notifier := new(MockStockNotifier)
	service := newProductService(mockRepo, new(MockCategoryRepository), notifier, nil)

	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Stock: 1}, nil).Once()
	mockRepo.On("UpdateStock", ctx, "p1", 0).Return(nil).Once()
	notifier.On("PublishStockUpdate", ctx, "p1", 0).Return(errors.New("broker down")).Once()

	_, err := service.UpdateStock(ctx, "p1", 0)
	assert.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	notifier := new(MockStockNotifier)
	service := newProductService(mockRepo, new(MockCategoryRepository), notifier, nil)

	updated := &models.Product{ID: "p1", Name: "Keyboard v2", Price: decimal.NewFromInt(80), Stock: 7}
	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Stock: 5}, nil).Once()
	mockRepo.On("Update", ctx, updated).Return(nil).Once()
	notifier.On("PublishStockUpdate", ctx, "p1", 7).Return(nil).Once()

	require.NoError(t, service.UpdateProduct(ctx, updated))

	mockRepo.On("GetByID", ctx, "missing").Return(nil, repositories.ErrRecordNotFound).Once()
	err := service.UpdateProduct(ctx, &models.Product{ID: "missing"})
	assert.ErrorIs(t, err, services.ErrProductNotFound)

	mockRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockCategoryRepository), new(MockStockNotifier), nil)

	mockRepo.On("Delete", ctx, "1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct(ctx, "1"))

	mockRepo.On("Delete", ctx, "99").Return(repositories.ErrRecordNotFound).Once()
	assert.ErrorIs(t, service.DeleteProduct(ctx, "99"), services.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestCategoryService_CreateCategory(t *testing.T) {
	ctx := context.Background()
	mockCats := new(MockCategoryRepository)
	service := services.NewCategoryService(mockCats)

	cat := &models.Category{Name: "Audio"}
	mockCats.On("GetByName", ctx, "Audio").Return(nil, repositories.ErrRecordNotFound).Once()
	mockCats.On("Create", ctx, cat).Return(nil).Once()
	require.NoError(t, service.CreateCategory(ctx, cat))

	mockCats.On("GetByName", ctx, "Audio").Return(&models.Category{ID: 1, Name: "Audio"}, nil).Once()
	err := service.CreateCategory(ctx, &models.Category{Name: "Audio"})
	assert.ErrorIs(t, err, services.ErrCategoryExists)
	mockCats.AssertExpectations(t)
}
