package services

import "storefront/internal/models"

// Caller is the authenticated identity a request acts as.
type Caller struct {
	UserID string
	Role   models.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// CanAccessUser reports whether the caller may read or change userID's account.
func (c Caller) CanAccessUser(userID string) bool {
	return c.IsAdmin() || (c.UserID != "" && c.UserID == userID)
}
