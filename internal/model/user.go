// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Username and Email are stored lowercased and trimmed; uniqueness of both
// is enforced by the repository. PasswordHash holds the bcrypt digest of the
// password, never the plaintext. RefreshToken holds the single currently
// valid refresh token for the account, empty when no session is active.
//
// PasswordHash and RefreshToken are tagged `json:"-"` so they can never leak
// through a serialized response, even if a handler forgets to sanitize.
type User struct {
	ID            string    `json:"id"            db:"id"`
	Username      string    `json:"username"      db:"username"`
	Email         string    `json:"email"         db:"email"`
	PasswordHash  string    `json:"-"             db:"password_hash"`
	FullName      string    `json:"fullName"      db:"full_name"`
	AvatarURL     string    `json:"avatarUrl"     db:"avatar_url"`
	CoverImageURL string    `json:"coverImageUrl" db:"cover_image_url"` // empty when the user has no cover image
	RefreshToken  string    `json:"-"             db:"refresh_token"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// Sanitized returns a copy of the user with the secret fields blanked.
// Handlers and the auth middleware hand out only sanitized copies.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	c.RefreshToken = ""
	return &c
}
