package storage

import "errors"

// Sentinel errors surfaced by ledger operations. Handlers match them with
// errors.Is to pick a response status.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("already exists")
	ErrCapacityExceeded     = errors.New("not enough capacity")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalid              = errors.New("invalid input")
)
