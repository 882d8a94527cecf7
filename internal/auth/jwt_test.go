package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/userhub/internal/apperror"
	"github.com/sakif/userhub/internal/model"
)

const (
	testAccessSecret  = "access-secret-at-least-16-chars"
	testRefreshSecret = "refresh-secret-at-least-16-char"
)

// newTestTokenService creates a TokenService with known secrets and short
// but positive lifetimes.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func testUser() *model.User {
	return &model.User{
		ID:       "user-123",
		Username: "alice",
		Email:    "a@x.com",
		FullName: "Alice A",
	}
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_RejectsShortSecrets(t *testing.T) {
	if _, err := NewTokenService("short", testRefreshSecret, time.Minute, time.Hour); err == nil {
		t.Error("NewTokenService() accepted a short access secret")
	}
	if _, err := NewTokenService(testAccessSecret, "short", time.Minute, time.Hour); err == nil {
		t.Error("NewTokenService() accepted a short refresh secret")
	}
}

func TestNewTokenService_RejectsNonPositiveTTL(t *testing.T) {
	if _, err := NewTokenService(testAccessSecret, testRefreshSecret, 0, time.Hour); err == nil {
		t.Error("NewTokenService() accepted a zero access TTL")
	}
}

// =========================================================================
// ACCESS TOKEN TESTS
// =========================================================================

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token does not look like a JWT: %q", token)
	}

	claims, err := ts.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.Username != "alice" || claims.Email != "a@x.com" || claims.FullName != "Alice A" {
		t.Errorf("identity claims = %q/%q/%q, want alice/a@x.com/Alice A",
			claims.Username, claims.Email, claims.FullName)
	}
}

func TestAccessToken_GarbledRejected(t *testing.T) {
	ts := newTestTokenService(t)

	_, err := ts.ParseAccessToken("not.a.jwt")
	if err == nil {
		t.Fatal("ParseAccessToken() accepted a garbled token")
	}
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("error = %v, want an unauthenticated error", err)
	}
}

func TestAccessToken_ExpiredRejected(t *testing.T) {
	ts, err := NewTokenService(testAccessSecret, testRefreshSecret, time.Millisecond, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := ts.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := ts.ParseAccessToken(token); err == nil {
		t.Error("ParseAccessToken() accepted an expired token")
	}
}

func TestAccessToken_WrongSecretRejected(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("another-access-secret-16+", "another-refresh-secret-16", 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _ := ts.IssueAccessToken(testUser())
	if _, err := other.ParseAccessToken(token); err == nil {
		t.Error("ParseAccessToken() accepted a token signed with a different secret")
	}
}

// =========================================================================
// REFRESH TOKEN TESTS
// =========================================================================

func TestRefreshToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	id, err := ts.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("ParseRefreshToken() error = %v", err)
	}
	if id != "user-123" {
		t.Errorf("id = %q, want %q", id, "user-123")
	}
}

func TestRefreshToken_ConsecutiveIssuesAreDistinct(t *testing.T) {
	ts := newTestTokenService(t)

	// Rotation relies on every issued token being a distinct string. The
	// "iat"/"exp" claims only have one-second resolution, so back-to-back
	// issues within the same second must still differ via the token id.
	first, err := ts.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}
	second, err := ts.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if first == second {
		t.Fatal("IssueRefreshToken() minted the same token twice within one second")
	}
	for _, token := range []string{first, second} {
		if id, err := ts.ParseRefreshToken(token); err != nil || id != "user-123" {
			t.Errorf("ParseRefreshToken() = %q, %v, want user-123, nil", id, err)
		}
	}
}

func TestTokenKinds_AreNotInterchangeable(t *testing.T) {
	ts := newTestTokenService(t)

	access, _ := ts.IssueAccessToken(testUser())
	refresh, _ := ts.IssueRefreshToken("user-123")

	// The two kinds are signed with distinct secrets, so neither parses
	// as the other.
	if _, err := ts.ParseRefreshToken(access); err == nil {
		t.Error("ParseRefreshToken() accepted an access token")
	}
	if _, err := ts.ParseAccessToken(refresh); err == nil {
		t.Error("ParseAccessToken() accepted a refresh token")
	}
}
