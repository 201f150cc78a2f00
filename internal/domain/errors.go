package domain

import "errors"

// Error kinds surfaced across repository and service boundaries.
// Handlers map these to HTTP statuses; storage detail never leaks past them.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrForbidden        = errors.New("access denied")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)
