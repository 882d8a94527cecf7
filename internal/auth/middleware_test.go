package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/userhub/internal/apperror"
	"github.com/sakif/userhub/internal/model"
)

// fakeUserRepo is a minimal in-memory repository for middleware tests.
// Only GetByID is exercised here; the rest satisfy the interface.
type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	return nil, apperror.NotFound("user", login)
}
func (f *fakeUserRepo) UpdateRefreshToken(ctx context.Context, id, token string) error { return nil }
func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, hash string) error      { return nil }
func (f *fakeUserRepo) UpdateDetails(ctx context.Context, id, name, email string) error {
	return nil
}
func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id, url string) error     { return nil }
func (f *fakeUserRepo) UpdateCoverImage(ctx context.Context, id, url string) error { return nil }

// echoUser is a terminal handler that records the context user.
func echoUser(captured **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := UserFromContext(r.Context()); ok {
			*captured = u
		}
		w.WriteHeader(http.StatusOK)
	})
}

func protectedRequest(t *testing.T, repo *fakeUserRepo, mutate func(*http.Request)) (*httptest.ResponseRecorder, *model.User) {
	t.Helper()
	ts := newTestTokenService(t)

	var captured *model.User
	handler := RequireAuth(ts, repo)(echoUser(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	mutate(req)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, captured
}

func TestRequireAuth_NoToken(t *testing.T) {
	rr, captured := protectedRequest(t, newFakeUserRepo(), func(r *http.Request) {})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if captured != nil {
		t.Error("handler ran despite missing token")
	}
}

func TestRequireAuth_RejectionIsJSONEnvelope(t *testing.T) {
	rr, _ := protectedRequest(t, newFakeUserRepo(), func(r *http.Request) {})

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Status  int    `json:"status"`
		Data    any    `json:"data"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("rejection body is not JSON: %v\nbody: %s", err, rr.Body.String())
	}
	if body.Status != http.StatusUnauthorized {
		t.Errorf("body status = %d, want 401", body.Status)
	}
	if body.Data != nil {
		t.Errorf("body data = %v, want null", body.Data)
	}
	if body.Message == "" {
		t.Error("body message is empty")
	}
}

func TestRequireAuth_GarbledToken(t *testing.T) {
	rr, _ := protectedRequest(t, newFakeUserRepo(), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer garbage.token.here")
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAuth_ValidCookie(t *testing.T) {
	user := &model.User{ID: "user-123", Username: "alice", Email: "a@x.com", FullName: "Alice A", PasswordHash: "hash", RefreshToken: "tok"}
	repo := newFakeUserRepo(user)
	ts := newTestTokenService(t)
	token, err := ts.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	var captured *model.User
	handler := RequireAuth(ts, repo)(echoUser(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if captured == nil {
		t.Fatal("no user attached to context")
	}
	if captured.ID != "user-123" {
		t.Errorf("context user ID = %q, want %q", captured.ID, "user-123")
	}
	// The context user must be sanitized.
	if captured.PasswordHash != "" || captured.RefreshToken != "" {
		t.Error("context user carries secret fields")
	}
}

func TestRequireAuth_BearerHeaderFallback(t *testing.T) {
	user := &model.User{ID: "user-456", Username: "bob", Email: "b@x.com", FullName: "Bob B"}
	repo := newFakeUserRepo(user)
	ts := newTestTokenService(t)
	token, _ := ts.IssueAccessToken(user)

	var captured *model.User
	handler := RequireAuth(ts, repo)(echoUser(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if captured == nil || captured.ID != "user-456" {
		t.Errorf("context user = %+v, want id user-456", captured)
	}
}

func TestRequireAuth_CookieWinsOverHeader(t *testing.T) {
	alice := &model.User{ID: "user-a", Username: "alice", Email: "a@x.com", FullName: "Alice"}
	bob := &model.User{ID: "user-b", Username: "bob", Email: "b@x.com", FullName: "Bob"}
	repo := newFakeUserRepo(alice, bob)
	ts := newTestTokenService(t)
	aliceToken, _ := ts.IssueAccessToken(alice)
	bobToken, _ := ts.IssueAccessToken(bob)

	var captured *model.User
	handler := RequireAuth(ts, repo)(echoUser(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: aliceToken})
	req.Header.Set("Authorization", "Bearer "+bobToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if captured == nil || captured.ID != "user-a" {
		t.Errorf("context user = %+v, want the cookie identity", captured)
	}
}

func TestRequireAuth_DeletedAccount(t *testing.T) {
	ghost := &model.User{ID: "user-gone", Username: "ghost", Email: "g@x.com", FullName: "Ghost"}
	ts := newTestTokenService(t)
	token, _ := ts.IssueAccessToken(ghost)

	// Repo without the account: a valid token for a vanished user.
	rr, captured := protectedRequest(t, newFakeUserRepo(), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if captured != nil {
		t.Error("handler ran for a deleted account")
	}
}
