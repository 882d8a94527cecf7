package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/userhub/internal/apperror"
	"github.com/sakif/userhub/internal/model"
	"github.com/sakif/userhub/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the authenticated user value.
type contextKey string

const userKey contextKey = "user"

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// RefreshTokenCookie is the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// RequireAuth gates protected routes.
//
// The access token is taken from the accessToken cookie first, then from
// an "Authorization: Bearer <token>" header. A missing, expired, or
// garbled token rejects the request with 401; the response does not say
// which it was. On success the account is loaded from the store (a token
// for a deleted account also gets 401) and attached, sanitized, to the
// request context for downstream handlers.
//
// This middleware is a pure validation gate: it never issues, rotates, or
// clears tokens.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ExtractAccessToken(r)
			if tokenStr == "" {
				unauthorized(w)
				return
			}

			claims, err := tokens.ParseAccessToken(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(r.Context(), claims.Subject)
			if err != nil {
				// A valid token for a vanished account is still
				// unauthenticated; anything else is a store failure.
				if errors.Is(err, apperror.ErrNotFound) {
					unauthorized(w)
					return
				}
				writeEnvelope(w, http.StatusInternalServerError, "An internal error occurred")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user.Sanitized())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated account attached by
// RequireAuth. The second return is false on unauthenticated requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// ExtractAccessToken locates the bearer access token on a request:
// cookie first, Authorization header second. Returns "" when neither is
// present.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	writeEnvelope(w, http.StatusUnauthorized, "valid authentication required")
}

// writeEnvelope emits the same {status,data,message} JSON shape the handler
// package uses, so rejected requests get a JSON body too.
func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"data":    nil,
		"message": message,
	})
}
