package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler serves account management for signed-in users.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewUserHandler(service *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, validate: validator.New(), logger: logger}
}

// RegisterRoutes expects router to already require authentication.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/profile", h.HandleProfile)

	users := router.Group("/users")
	users.Get("/", middleware.AdminOnly(), h.HandleListUsers)
	users.Get("/:id", h.HandleGetUser)
	users.Put("/:id", h.HandleUpdateUser)
	users.Delete("/:id", h.HandleDeleteUser)
	users.Put("/:id/password", h.HandleChangePassword)
}

// HandleProfile returns the caller's own account.
func (h *UserHandler) HandleProfile(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	user, err := h.service.GetUser(c.UserContext(), caller, caller.UserID)
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve profile", err)
	}
	return c.JSON(user)
}

// HandleListUsers lists all users, sorted by ?sort=name|email.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext(), middleware.Caller(c), c.Query("sort", "name"))
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve users", err)
	}
	return c.JSON(users)
}

func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.UserContext(), middleware.Caller(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

// UpdateUserRequest is the editable part of an account.
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"max=255"`
	Email string `json:"email" validate:"required,email"`
}

func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}
	user, err := h.service.UpdateUser(c.UserContext(), middleware.Caller(c), c.Params("id"), req.Name, req.Email)
	if err != nil {
		return writeError(c, h.logger, "Could not update user", err)
	}
	return c.JSON(user)
}

func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), middleware.Caller(c), c.Params("id")); err != nil {
		return writeError(c, h.logger, "Could not delete user", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePasswordRequest carries the current and the new password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}
	err := h.service.ChangePassword(c.UserContext(), middleware.Caller(c), c.Params("id"), req.OldPassword, req.NewPassword)
	if err != nil {
		return writeError(c, h.logger, "Could not change password", err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}
