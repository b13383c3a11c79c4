// Package apperr defines the error kinds shared by every feature package.
// Feature errors wrap one of these so the HTTP layer can pick a status code
// with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

// Validation returns an error whose message is safe to show to the caller.
func Validation(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// Transition reports a rejected status change.
func Transition(entity, from, to string) error {
	return fmt.Errorf("%w: %s cannot move from %q to %q", ErrInvalidTransition, entity, from, to)
}

// NotFound names the missing entity.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Conflict describes a uniqueness or state clash.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Stale reports a conditional write that lost to a concurrent change.
func Stale(entity string) error {
	return Conflict("%s was changed by another request, reload and retry", entity)
}

// Forbidden explains why an authenticated caller may not proceed.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
