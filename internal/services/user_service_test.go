package services_test

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type accountFixture struct {
	users *repositories.GORMUserRepository
	auth  *services.AuthService
	svc   *services.UserService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	users := repositories.NewGORMUserRepository(setupDB(t))
	return &accountFixture{
		users: users,
		auth:  services.NewAuthService(users, "test-secret", zaptest.NewLogger(t)),
		svc:   services.NewUserService(users),
	}
}

func (f *accountFixture) register(t *testing.T, username, name, email string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Name: name, Email: email, Password: "password123"}
	require.NoError(t, f.auth.RegisterUser(context.Background(), u))
	return u
}

func TestUserService_ListUsersRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	bob := f.register(t, "bob", "Bob", "bob@example.com")
	f.register(t, "alice", "Alice", "zed@example.com")

	_, err := f.svc.ListUsers(ctx, services.Caller{UserID: bob.ID, Role: models.RoleUser}, "name")
	assert.ErrorIs(t, err, services.ErrForbidden)

	admin := services.Caller{UserID: "root", Role: models.RoleAdmin}
	byName, err := f.svc.ListUsers(ctx, admin, "name")
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "Alice", byName[0].Name)

	byEmail, err := f.svc.ListUsers(ctx, admin, "email")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", byEmail[0].Email)

	// Unknown sort keys fall back to name.
	fallback, err := f.svc.ListUsers(ctx, admin, "password; DROP TABLE users")
	require.NoError(t, err)
	assert.Equal(t, "Alice", fallback[0].Name)
}

func TestUserService_AccessIsLimitedToSelfOrAdmin(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	bob := f.register(t, "bob", "Bob", "bob@example.com")
	eve := f.register(t, "eve", "Eve", "eve@example.com")
	asEve := services.Caller{UserID: eve.ID, Role: models.RoleUser}

	_, err := f.svc.GetUser(ctx, asEve, bob.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = f.svc.UpdateUser(ctx, asEve, bob.ID, "Hacked", "x@example.com")
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, asEve, bob.ID), services.ErrForbidden)

	self, err := f.svc.GetUser(ctx, asEve, eve.ID)
	require.NoError(t, err)
	assert.Equal(t, "eve", self.Username)

	admin := services.Caller{UserID: "root", Role: models.RoleAdmin}
	other, err := f.svc.GetUser(ctx, admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", other.Username)

	_, err = f.svc.GetUser(ctx, admin, "missing")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestUserService_UpdateUser(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	bob := f.register(t, "bob", "Bob", "bob@example.com")
	f.register(t, "carol", "Carol", "carol@example.com")
	asBob := services.Caller{UserID: bob.ID, Role: models.RoleUser}

	_, err := f.svc.UpdateUser(ctx, asBob, bob.ID, "Bob", "carol@example.com")
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	updated, err := f.svc.UpdateUser(ctx, asBob, bob.ID, "Robert", "robert@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)

	stored, err := f.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "robert@example.com", stored.Email)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	bob := f.register(t, "bob", "Bob", "bob@example.com")
	asBob := services.Caller{UserID: bob.ID, Role: models.RoleUser}

	err := f.svc.ChangePassword(ctx, asBob, bob.ID, "wrong", "newpassword")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	require.NoError(t, f.svc.ChangePassword(ctx, asBob, bob.ID, "password123", "newpassword"))

	_, err = f.auth.LoginUser(ctx, "bob", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	token, err := f.auth.LoginUser(ctx, "bob", "newpassword")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	bob := f.register(t, "bob", "Bob", "bob@example.com")
	asBob := services.Caller{UserID: bob.ID, Role: models.RoleUser}

	require.NoError(t, f.svc.DeleteUser(ctx, asBob, bob.ID))
	_, err := f.users.GetByID(ctx, bob.ID)
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)

	admin := services.Caller{UserID: "root", Role: models.RoleAdmin}
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, admin, bob.ID), services.ErrUserNotFound)
}

func TestAuthService_EnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin", "admin@example.com", "secret"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin", "admin@example.com", "other"))

	admin, err := f.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	token, err := f.auth.LoginUser(ctx, "admin", "secret")
	require.NoError(t, err)
	claims, err := f.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, admin.ID, claims.UserID)
}
