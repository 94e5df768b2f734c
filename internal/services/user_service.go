package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

var userSortColumns = map[string]string{
	"name":  "name",
	"email": "email",
}

// UserService manages user accounts after registration.
type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsers returns every user sorted by name or email. Unknown sort keys
// fall back to name.
func (s *UserService) ListUsers(ctx context.Context, caller Caller, sort string) ([]models.User, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	column, ok := userSortColumns[sort]
	if !ok {
		column = "name"
	}
	return s.userRepo.GetAll(ctx, column)
}

func (s *UserService) GetUser(ctx context.Context, caller Caller, id string) (*models.User, error) {
	if !caller.CanAccessUser(id) {
		return nil, ErrForbidden
	}
	return s.load(ctx, id)
}

// UpdateUser changes a user's name and email.
func (s *UserService) UpdateUser(ctx context.Context, caller Caller, id, name, email string) (*models.User, error) {
	if !caller.CanAccessUser(id) {
		return nil, ErrForbidden
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if email != user.Email {
		if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
			return nil, fmt.Errorf("email '%s': %w", email, ErrEmailTaken)
		} else if !errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, err
		}
	}
	user.Name = name
	user.Email = email
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, caller Caller, id string) error {
	if !caller.CanAccessUser(id) {
		return ErrForbidden
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ChangePassword replaces the password after checking the old one.
func (s *UserService) ChangePassword(ctx context.Context, caller Caller, id, oldPassword, newPassword string) error {
	if !caller.CanAccessUser(id) {
		return ErrForbidden
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrUnauthorized
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
