// Package apperr defines the error taxonomy shared by services and handlers.
// Services return errors wrapping one of the sentinels below; the HTTP layer
// maps them to status codes and never inspects error strings.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input shape or values (quantity <= 0, missing fields).
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an absent entity or a deliberately masked ownership mismatch.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated marks a missing, malformed or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden marks a valid identity with insufficient privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks an invalid state transition or uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrStorage marks persistence-layer failures (constraint violations, connection loss).
	ErrStorage = errors.New("storage error")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Unauthenticatedf wraps ErrUnauthenticated with a formatted message.
func Unauthenticatedf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnauthenticated)...)
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// Storage wraps a persistence-layer error so callers can distinguish it from
// domain outcomes.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
