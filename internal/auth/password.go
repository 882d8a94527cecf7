// Package auth provides the authentication primitives: password hashing,
// JWT issuance and verification, and the request middleware that gates
// protected routes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/userhub/internal/apperror"
)

// defaultCost is the bcrypt work factor used in production.
// Hashing at cost 10 takes tens of milliseconds on current server hardware,
// which keeps offline brute-force attacks expensive.
const defaultCost = 10

// PasswordService provides bcrypt hashing and verification.
//
// It is a struct rather than free functions so the cost can be injected:
// tests use the bcrypt minimum (4) to avoid paying the production work
// factor on every hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Intended for tests; do not lower the cost in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash derives a bcrypt digest from the plaintext password.
//
// The output is self-contained: bcrypt embeds the salt and cost in the
// digest, so the string can be stored directly. Plaintexts longer than 72
// bytes are rejected explicitly because bcrypt would silently truncate
// them.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt digest.
// The comparison is constant time (handled inside bcrypt). A mismatch is
// reported as an unauthenticated error so callers can surface it as 401
// without inspecting bcrypt internals.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperror.Unauthenticated("invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
