package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("token missing"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("token mismatch"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("duplicate username"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Dependency wraps ErrDependency",
			err:       Dependency("upload failed", errors.New("connection reset")),
			target:    ErrDependency,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthenticated does NOT match ErrForbidden",
			err:       Unauthenticated("token missing"),
			target:    ErrForbidden,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIs_ThroughWrapping(t *testing.T) {
	// Services wrap with fmt.Errorf("...: %w", err); the sentinel must
	// still be reachable through the chain.
	inner := Conflict("duplicate email")
	wrapped := fmt.Errorf("service/account: creating user: %w", inner)

	if !errors.Is(wrapped, ErrConflict) {
		t.Error("wrapped AppError no longer matches ErrConflict")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to extract *AppError from wrapped chain")
	}
	if appErr.Message != "duplicate email" {
		t.Errorf("AppError.Message = %q, want %q", appErr.Message, "duplicate email")
	}
}

func TestDependency_KeepsUnderlyingError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Dependency("failed to upload image", cause)

	if !errors.Is(err, cause) {
		t.Error("Dependency() lost the underlying error")
	}
	if err.Error() != "failed to upload image" {
		t.Errorf("Error() = %q, want the client-safe message", err.Error())
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("password", "password must be at least 6 characters")
	if err.Field != "password" {
		t.Errorf("Field = %q, want %q", err.Field, "password")
	}
}
