package handlers

import (
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{service: service, validate: validator.New(), logger: logger}
}

// RegisterRoutes registers the product routes. Reads are public, writes need
// auth followed by the admin role.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", auth, middleware.AdminOnly(), h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, middleware.AdminOnly(), h.HandleUpdateProduct)
	productRoutes.Patch("/:id/stock", auth, middleware.AdminOnly(), h.HandleUpdateStock)
	productRoutes.Delete("/:id", auth, middleware.AdminOnly(), h.HandleDeleteProduct)
}

// ProductRequest is the body for creating or replacing a product.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	ImageURL    string          `json:"imageUrl"`
	CategoryID  *uint           `json:"categoryId"`
}

func (r ProductRequest) toModel() *models.Product {
	return &models.Product{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
		CategoryID:  r.CategoryID,
	}
}

// HandleGetProducts lists products, filtered by ?categoryId= when present.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	var categoryID *uint
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid categoryId",
				"error":   err.Error(),
			})
		}
		v := uint(id)
		categoryID = &v
	}

	products, err := h.service.GetAllProducts(c.UserContext(), categoryID)
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := h.bindProduct(c, &req); !ok {
		return err
	}

	product := req.toModel()
	if err := h.service.CreateProduct(c.UserContext(), product); err != nil {
		return writeError(c, h.logger, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := h.bindProduct(c, &req); !ok {
		return err
	}

	product := req.toModel()
	product.ID = c.Params("id")
	if err := h.service.UpdateProduct(c.UserContext(), product); err != nil {
		return writeError(c, h.logger, "Could not update product", err)
	}
	updated, err := h.service.GetProductByID(c.UserContext(), product.ID)
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve product", err)
	}
	return c.JSON(updated)
}

// StockRequest sets a product's stock level.
type StockRequest struct {
	Stock *int `json:"stock" validate:"required,min=0"`
}

// HandleUpdateStock sets the stock level and pushes it to inventory subscribers.
func (h *ProductHandler) HandleUpdateStock(c *fiber.Ctx) error {
	var req StockRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}
	product, err := h.service.UpdateStock(c.UserContext(), c.Params("id"), *req.Stock)
	if err != nil {
		return writeError(c, h.logger, "Could not update stock", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.logger, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) bindProduct(c *fiber.Ctx, req *ProductRequest) (bool, error) {
	if ok, err := bindBody(c, h.validate, req); !ok {
		return false, err
	}
	if !req.Price.IsPositive() {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"Price": "Field 'Price' must be greater than zero"},
		})
	}
	return true, nil
}
