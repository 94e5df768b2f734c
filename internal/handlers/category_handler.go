package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCategoryHandler(service *services.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, validate: validator.New(), logger: logger}
}

func (h *CategoryHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Post("/", auth, middleware.AdminOnly(), h.HandleCreateCategory)
}

type CategoryRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	ImageURL string `json:"imageUrl"`
}

func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}
	category := &models.Category{Name: req.Name, ImageURL: req.ImageURL}
	if err := h.service.CreateCategory(c.UserContext(), category); err != nil {
		return writeError(c, h.logger, "Could not create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
