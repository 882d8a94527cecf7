package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/userhub/internal/apperror"
	"github.com/sakif/userhub/internal/model"
	"github.com/sakif/userhub/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, full_name, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// Create inserts a new account, assigning the ID and timestamps.
// A username or email already taken by another row surfaces as a conflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, full_name, avatar_url, cover_image_url, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.AvatarURL,
		user.CoverImageURL,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a user with this username or email already exists")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves an account by its internal ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByLogin retrieves an account by username or email. The caller is
// expected to lowercase the login; values are stored lowercased.
func (db *DB) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?`,
		login, login)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("sqlite: getting user by login %q: %w", login, err)
	}
	return u, nil
}

// UpdateRefreshToken sets (or clears, with "") the stored refresh token.
// Nothing else on the row is validated or touched besides updated_at.
func (db *DB) UpdateRefreshToken(ctx context.Context, id, token string) error {
	return db.updateFields(ctx, id,
		`UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`,
		token)
}

// UpdatePassword replaces the stored password hash.
func (db *DB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return db.updateFields(ctx, id,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash)
}

// UpdateDetails updates the profile fields that were provided; empty
// arguments leave the stored value as is. A duplicate email surfaces as a
// conflict.
func (db *DB) UpdateDetails(ctx context.Context, id, fullName, email string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET full_name = CASE WHEN ? != '' THEN ? ELSE full_name END,
		     email     = CASE WHEN ? != '' THEN ? ELSE email END,
		     updated_at = ?
		 WHERE id = ?`,
		fullName, fullName, email, email, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a user with this email already exists")
		}
		return fmt.Errorf("sqlite: updating details for user %s: %w", id, err)
	}
	return requireRow(res, id)
}

// UpdateAvatar replaces the avatar URL.
func (db *DB) UpdateAvatar(ctx context.Context, id, url string) error {
	return db.updateFields(ctx, id,
		`UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		url)
}

// UpdateCoverImage replaces the cover image URL.
func (db *DB) UpdateCoverImage(ctx context.Context, id, url string) error {
	return db.updateFields(ctx, id,
		`UPDATE users SET cover_image_url = ?, updated_at = ? WHERE id = ?`,
		url)
}

// updateFields runs a single-column update with the shared
// value/updated_at/id argument shape and not-found detection.
func (db *DB) updateFields(ctx context.Context, id, query, value string) error {
	res, err := db.conn.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}
	return requireRow(res, id)
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for user %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.AvatarURL,
		&u.CoverImageURL,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
