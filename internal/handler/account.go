// Package handler exposes the account service over HTTP.
//
// Handlers decode requests, stage uploaded files, call the service, and
// write the response envelope. All domain decisions (validation rules,
// token rotation, uniqueness) live in the service; all HTTP decisions
// (status codes, cookies, multipart staging) live here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/userhub/internal/apperror"
	"github.com/sakif/userhub/internal/auth"
	"github.com/sakif/userhub/internal/model"
	"github.com/sakif/userhub/internal/service"
)

// maxJSONBytes bounds JSON request bodies.
const maxJSONBytes = 1 << 20 // 1 MiB

// AccountHandler serves the /api/v1/users routes.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
	opts     Options
}

// Options carries the HTTP-level settings the handlers need.
type Options struct {
	// TempDir is where multipart uploads are staged before the media host
	// upload.
	TempDir string
	// CookieSecure marks auth cookies Secure (HTTPS-only transport).
	CookieSecure bool
	// Cookie lifetimes, matching the token lifetimes.
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// NewAccountHandler creates the handler with its dependencies injected.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger, opts Options) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger, opts: opts}
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/v1/users/register (multipart/form-data)
// Fields: fullName, email, password, username; files: avatar (required),
// coverImage (optional).
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed("", "request must be multipart/form-data with an avatar image"))
		return
	}

	avatarPath, err := stageFormFile(r, "avatar", h.opts.TempDir)
	if err != nil {
		h.logger.Error("staging avatar failed", slog.String("error", err.Error()))
		writeError(w, apperror.Dependency("failed to receive avatar image", err))
		return
	}
	defer removeStaged(avatarPath)

	coverPath, err := stageFormFile(r, "coverImage", h.opts.TempDir)
	if err != nil {
		h.logger.Error("staging cover image failed", slog.String("error", err.Error()))
		writeError(w, apperror.Dependency("failed to receive cover image", err))
		return
	}
	defer removeStaged(coverPath)

	user, err := h.accounts.Register(r.Context(), service.RegisterInput{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Password:       r.FormValue("password"),
		Username:       r.FormValue("username"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user, "User registered successfully")
}

// loginRequest accepts either username or email alongside the password.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse returns the sanitized user with both tokens. The tokens
// are also set as cookies; the body copies serve non-browser clients.
type loginResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// HandleLogin authenticates by username or email and starts a session.
//
// HTTP: POST /api/v1/users/login
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	login := req.Username
	if login == "" {
		login = req.Email
	}

	result, err := h.accounts.Login(r.Context(), login, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, result.Tokens)
	writeJSON(w, http.StatusOK, loginResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, "User logged in successfully")
}

// HandleLogout ends the session: the stored refresh token is cleared and
// both auth cookies expire. Safe to call twice.
//
// HTTP: POST /api/v1/users/logout (auth required)
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	if err := h.accounts.Logout(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, nil, "User logged out successfully")
}

// refreshRequest is the body fallback for clients that do not hold the
// refresh cookie.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh exchanges a refresh token (cookie first, then body) for a
// new token pair and rotates the cookies.
//
// HTTP: POST /api/v1/users/refresh-token
func (h *AccountHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if c, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req refreshRequest
		// The body is optional here; decode errors count as a missing
		// token rather than a 400.
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
		_ = json.NewDecoder(r.Body).Decode(&req)
		presented = req.RefreshToken
	}

	result, err := h.accounts.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, result.Tokens)
	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, "Access token refreshed")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword rehashes and stores a new password after verifying
// the old one.
//
// HTTP: PATCH /api/v1/users/change-password (auth required)
func (h *AccountHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil, "Password changed successfully")
}

// HandleMe returns the authenticated account. The verifier middleware
// already loaded and sanitized it; no second store round trip.
//
// HTTP: GET /api/v1/users/me (auth required)
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, user, "Current user fetched")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// HandleUpdateAccount updates fullName and/or email.
//
// HTTP: PUT /api/v1/users/update-account (auth required)
func (h *AccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req updateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.accounts.UpdateDetails(r.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated, "Account details updated")
}

// HandleUpdateAvatar replaces the avatar image.
//
// HTTP: PUT /api/v1/users/update-avatar (auth required, multipart)
func (h *AccountHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "avatar", h.accounts.UpdateAvatar)
}

// HandleUpdateCoverImage replaces the cover image.
//
// HTTP: PUT /api/v1/users/update-coverimage (auth required, multipart)
func (h *AccountHandler) HandleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "coverImage", h.accounts.UpdateCoverImage)
}

// handleImageUpdate stages the named form file and hands it to the given
// service operation. The staged file is removed whether or not the update
// succeeds.
func (h *AccountHandler) handleImageUpdate(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID, localPath string) (*model.User, error),
) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed(field, "request must be multipart/form-data with a "+field+" file"))
		return
	}

	path, err := stageFormFile(r, field, h.opts.TempDir)
	if err != nil {
		h.logger.Error("staging upload failed",
			slog.String("field", field),
			slog.String("error", err.Error()),
		)
		writeError(w, apperror.Dependency("failed to receive image file", err))
		return
	}
	if path == "" {
		writeError(w, apperror.ValidationFailed(field, "a "+field+" file is required"))
		return
	}
	defer removeStaged(path)

	updated, err := update(r.Context(), user.ID, path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated, "Image updated successfully")
}

// decodeJSON reads a bounded JSON body into dst, answering 400 on any
// decode failure. Returns false when the response has been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, apperror.ValidationFailed("", "request body must be valid JSON"))
		return false
	}
	return true
}

// setAuthCookies installs both tokens as HttpOnly, SameSite=Strict
// cookies. The refresh cookie lives as long as the refresh token (~7
// days); the access cookie as long as the access token.
func (h *AccountHandler) setAuthCookies(w http.ResponseWriter, tokens service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(h.opts.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.opts.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookies expires both auth cookies immediately.
func (h *AccountHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.opts.CookieSecure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
