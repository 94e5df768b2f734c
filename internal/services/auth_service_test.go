package services_test

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, zap.NewNop())

	user := &models.User{Username: "testuser", Email: "test@example.com", Password: "password123"}

	mockRepo.On("GetByUsername", ctx, "testuser").Return(nil, repositories.ErrRecordNotFound).Once()
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(nil, repositories.ErrRecordNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Username already taken
	mockRepo.On("GetByUsername", ctx, "testuser").Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(ctx, &models.User{Username: "testuser", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
	assert.Contains(t, err.Error(), "username 'testuser'")

	// Email already registered
	mockRepo.On("GetByUsername", ctx, "fresh").Return(nil, repositories.ErrRecordNotFound).Once()
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(ctx, &models.User{Username: "fresh", Email: "test@example.com", Password: "x"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, zap.NewNop())

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
	}

	mockRepo.On("GetByUsername", ctx, "testuser").Return(user, nil).Twice()

	token, err := authService.LoginUser(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, "ADMIN", claims["role"])

	validated, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, &services.Claims{UserID: "user-123", Username: "testuser", Role: models.RoleAdmin}, validated)

	// Wrong password
	_, err = authService.LoginUser(ctx, "testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Unknown user gets the same error
	mockRepo.On("GetByUsername", ctx, "nobody").Return(nil, repositories.ErrRecordNotFound).Once()
	_, err = authService.LoginUser(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, zap.NewNop())

	signed := func(secret string, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	_, err := authService.ValidateToken(signed("other_secret", jwt.MapClaims{"user_id": "u"}))
	assert.Error(t, err)

	_, err = authService.ValidateToken(signed(testJWTSecret, jwt.MapClaims{"user_id": "u", "exp": 1}))
	assert.Error(t, err)

	_, err = authService.ValidateToken(signed(testJWTSecret, jwt.MapClaims{"username": "no-id"}))
	assert.Error(t, err)

	_, err = authService.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, zap.NewNop())

	// Already present: nothing to do
	mockRepo.On("GetByUsername", ctx, "admin").Return(&models.User{ID: "a"}, nil).Once()
	require.NoError(t, authService.EnsureAdmin(ctx, "admin", "admin@example.com", "secret"))

	mockRepo.On("GetByUsername", ctx, "admin").Return(nil, repositories.ErrRecordNotFound).Twice()
	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(nil, repositories.ErrRecordNotFound).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "admin" && u.Role == models.RoleAdmin
	})).Return(nil).Once()
	require.NoError(t, authService.EnsureAdmin(ctx, "admin", "admin@example.com", "secret"))
	mockRepo.AssertExpectations(t)
}
