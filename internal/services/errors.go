package services

import "errors"

var (
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrCartItemNotFound     = errors.New("product is not in the cart")
	ErrCartConflict         = errors.New("cart was modified by another request")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrProductNotFound      = errors.New("product not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryExists       = errors.New("category already exists")
	ErrOrderNotFound        = errors.New("order not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyInWishlist    = errors.New("product already in wishlist")
	ErrWishlistItemNotFound = errors.New("product is not in the wishlist")
)
