// Package apperror defines the application's error taxonomy.
//
// Services return errors wrapping one of the sentinel values below; the
// HTTP layer maps each sentinel to a status code in exactly one place
// (handler.writeError). errors.Is walks the wrap chain, so services are
// free to add context with fmt.Errorf("...: %w", err).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrDependency      = errors.New("dependency failure")
)

// AppError carries a human-readable message alongside the sentinel that
// classifies it. The message is safe to return to clients.
type AppError struct {
	Err     error  // sentinel classifying the error
	Message string // human-readable, client-safe message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Unauthenticated covers missing, malformed, and expired credentials.
// Callers are given a single message regardless of which it was.
func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

// Dependency wraps a failure in an external collaborator (store, media
// host, hashing). The underlying error is kept for logs; the message is
// what the client sees.
func Dependency(message string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrDependency, err),
		Message: message,
	}
}
