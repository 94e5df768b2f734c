package repositories

import "errors"

var (
	// ErrRecordNotFound is wrapped by every lookup that matches nothing.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStaleCart is returned when a cart changed since it was read.
	ErrStaleCart = errors.New("cart was modified concurrently")
	// ErrStaleOrder is returned when an order left the expected status.
	ErrStaleOrder = errors.New("order status changed concurrently")
)
