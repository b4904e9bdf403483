package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the core matches exactly one of
// these with errors.Is.
var (
	ErrUnauthenticated = errors.New("authentication rejected")
	ErrForbidden       = errors.New("access forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrStorage         = errors.New("storage failure")
)

var (
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	ErrInvalidToken        = fmt.Errorf("could not validate credentials: %w", ErrUnauthenticated)
	ErrInvalidRefreshToken = fmt.Errorf("invalid or expired refresh token: %w", ErrUnauthenticated)

	ErrInactiveUser = fmt.Errorf("inactive user: %w", ErrForbidden)

	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrRoleNotFound         = fmt.Errorf("role %w", ErrNotFound)
	ErrRefreshTokenNotFound = fmt.Errorf("refresh token %w", ErrNotFound)

	ErrEmailTaken    = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrRoleNameTaken = fmt.Errorf("role name already exists: %w", ErrConflict)
)

// Invalid returns a validation error carrying msg.
func Invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}

// StorageError tags err as a backing store failure while keeping it
// inspectable with errors.Is / errors.As.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
