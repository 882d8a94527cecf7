package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/userhub/internal/apperror"
	"github.com/sakif/userhub/internal/model"
)

// issuer identifies tokens minted by this service. Verification rejects
// tokens carrying any other issuer.
const issuer = "userhub"

// minSecretLen matches the config-level minimum for HMAC secrets.
const minSecretLen = 16

// TokenService issues and verifies the two JWT kinds the service uses:
//
//   - Access tokens: short-lived, signed with the access secret, carrying
//     the account id plus username, email, and fullName so handlers can
//     render identity without a DB round trip.
//   - Refresh tokens: longer-lived, signed with a distinct refresh secret,
//     carrying the account id and a unique token id so consecutive issues
//     never collide. A refresh token is additionally checked
//     against the value stored on the account (single active token), but
//     that check belongs to the account service, not here.
//
// Both kinds are stateless HS256 bearer credentials; validity here means
// signature, issuer, and expiry.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService. Both secrets are required and
// must be at least 16 bytes; an unconfigured secret is a startup error,
// never a per-request one.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) < minSecretLen {
		return nil, errors.New("auth: access token secret must be at least 16 characters")
	}
	if len(refreshSecret) < minSecretLen {
		return nil, errors.New("auth: refresh token secret must be at least 16 characters")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL reports the configured access token lifetime. Handlers use it
// to set the access cookie max-age.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// AccessClaims is the payload of an access token. The account id lives in
// the registered "sub" claim; the profile fields are private claims.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// refreshClaims is the payload of a refresh token: registered claims only,
// with the account id in "sub".
type refreshClaims struct {
	jwt.RegisteredClaims
}

// IssueAccessToken signs a new access token for the given user.
func (s *TokenService) IssueAccessToken(u *model.User) (string, error) {
	now := time.Now()
	c := AccessClaims{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("auth: signing access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs a new refresh token carrying the account id and a
// unique token id. The "jti" claim guarantees every issued token is a
// distinct string even within the one-second resolution of "iat", so
// rotation always invalidates the stored predecessor.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	now := time.Now()
	c := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("auth: signing refresh token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies an access token and returns its claims.
// Signature, signing method, issuer, and expiry are all checked; any
// failure is reported as an unauthenticated error without distinguishing
// the reason to the caller.
func (s *TokenService) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	var c AccessClaims
	if err := s.parse(tokenStr, &c, s.accessSecret); err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, apperror.Unauthenticated("invalid or expired access token")
	}
	return &c, nil
}

// ParseRefreshToken verifies a refresh token and returns the account id it
// carries. Equality with the token stored on the account is the account
// service's responsibility.
func (s *TokenService) ParseRefreshToken(tokenStr string) (string, error) {
	var c refreshClaims
	if err := s.parse(tokenStr, &c, s.refreshSecret); err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", apperror.Unauthenticated("invalid or expired refresh token")
	}
	return c.Subject, nil
}

// parse runs the shared verification path for both token kinds.
// jwt.WithValidMethods pins the algorithm to HS256 so a forged token
// cannot downgrade the signing method.
func (s *TokenService) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		// Expired, garbled, wrong secret, wrong issuer: all the same to the
		// caller.
		return apperror.Unauthenticated("invalid or expired token")
	}
	return nil
}
