package service

import (
	"errors"
	"fmt"

	"github.com/spendsight/backend/internal/store"
)

// The service classifies every failure into one of four kinds. Handlers at
// the transport boundary translate the kind into a response shape; the
// service itself never formats HTTP responses.
var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound marks an operation targeting a nonexistent id.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks an unreachable or timed-out store.
	ErrUnavailable = errors.New("store unavailable")
)

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a missing-record failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnavailable reports whether err is a store outage.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// validationErr wraps a field-level message as a Validation failure.
func validationErr(err error) error {
	return fmt.Errorf("%w: %s", ErrValidation, err)
}

// wrapStoreErr classifies a store failure: a missing id surfaces as NotFound,
// anything else as Unavailable.
func wrapStoreErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
