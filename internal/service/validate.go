package service

import (
	"strings"

	"github.com/sakif/userhub/internal/apperror"
)

// Shared validation helpers. Every operation validates through these pure
// functions so the rules cannot drift between handlers.

// minPasswordLen is enforced whenever a plaintext password is accepted.
const minPasswordLen = 6

// nonBlank rejects empty or whitespace-only values.
func nonBlank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, field+" must not be blank")
	}
	return nil
}

// validEmail accepts addresses with exactly one "@" separating a non-empty
// local part from a non-empty domain segment.
func validEmail(email string) error {
	at := strings.Count(email, "@")
	if at != 1 {
		return apperror.ValidationFailed("email", "please enter a valid email address")
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain == "" {
		return apperror.ValidationFailed("email", "please enter a valid email address")
	}
	return nil
}

// validPassword enforces the minimum plaintext length.
func validPassword(password string) error {
	if len(password) < minPasswordLen {
		return apperror.ValidationFailed("password", "password must be at least 6 characters")
	}
	return nil
}

// normalizeLogin lowercases and trims a username or email for lookup and
// storage. Usernames and emails are case-insensitive throughout.
func normalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
