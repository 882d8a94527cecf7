// Package repository declares the storage interfaces consumed by the
// service layer. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/userhub/internal/model"
)

// UserRepository is the persistence contract for accounts.
//
// The store enforces uniqueness of username and email; Create and
// UpdateDetails return an error wrapping apperror.ErrConflict when a
// unique constraint is violated. Lookups that find nothing return an error
// wrapping apperror.ErrNotFound. Every successful write refreshes the
// account's updated_at timestamp.
type UserRepository interface {
	// Create persists a new account. ID and timestamps are assigned by the
	// implementation.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the account with the given id.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByLogin returns the account whose username or email equals the
	// given login (already lowercased by the caller).
	GetByLogin(ctx context.Context, login string) (*model.User, error)

	// UpdateRefreshToken sets the stored refresh token. An empty token
	// clears the active session. Only the token and updated_at change.
	UpdateRefreshToken(ctx context.Context, id, token string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateDetails updates fullName and/or email; an empty argument
	// leaves the corresponding field untouched.
	UpdateDetails(ctx context.Context, id, fullName, email string) error

	// UpdateAvatar replaces the avatar URL.
	UpdateAvatar(ctx context.Context, id, url string) error

	// UpdateCoverImage replaces the cover image URL.
	UpdateCoverImage(ctx context.Context, id, url string) error
}
