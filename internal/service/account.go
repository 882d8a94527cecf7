// Package service contains the account business logic.
//
// AccountService sits between the HTTP handlers and its collaborators:
//
//	AccountHandler (HTTP) → AccountService → UserRepository (store)
//	                                       ↘ TokenService (JWT)
//	                                       ↘ PasswordService (bcrypt)
//	                                       ↘ media.Storage (image host)
//
// It owns the session discipline: one active refresh token per account,
// set on login, rotated on every refresh, cleared on logout. Concurrent
// refreshes for the same account race last-write-wins; the loser's token
// fails the stored-equality check on its next use.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/userhub/internal/apperror"
	"github.com/sakif/userhub/internal/auth"
	"github.com/sakif/userhub/internal/media"
	"github.com/sakif/userhub/internal/model"
	"github.com/sakif/userhub/internal/repository"
)

// AccountService orchestrates registration, login, session lifecycle, and
// profile mutation.
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	media     media.Storage
	logger    *slog.Logger
}

// NewAccountService creates an AccountService with all dependencies
// injected. Called once from the server wiring.
func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mediaStore media.Storage,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		media:     mediaStore,
		logger:    logger,
	}
}

// RegisterInput carries the registration form. AvatarPath and
// CoverImagePath point at staged local files; CoverImagePath may be empty.
type RegisterInput struct {
	FullName       string
	Email          string
	Password       string
	Username       string
	AvatarPath     string
	CoverImagePath string
}

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by Login: the sanitized account plus its tokens.
type AuthResult struct {
	User   *model.User
	Tokens TokenPair
}

// Register validates the input, uploads the avatar (and cover image when
// given), and persists the new account. The returned account is sanitized.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	for field, value := range map[string]string{
		"fullName": in.FullName,
		"email":    in.Email,
		"password": in.Password,
		"username": in.Username,
	} {
		if err := nonBlank(field, value); err != nil {
			return nil, err
		}
	}

	email := normalizeLogin(in.Email)
	username := normalizeLogin(in.Username)

	if err := validEmail(email); err != nil {
		return nil, err
	}
	if err := validPassword(in.Password); err != nil {
		return nil, err
	}
	if in.AvatarPath == "" {
		return nil, apperror.ValidationFailed("avatar", "an avatar image is required")
	}

	// Check both unique fields up front so the common duplicate case fails
	// before any image leaves the machine. The store's UNIQUE constraints
	// still catch a concurrent racer at Create.
	for _, login := range []string{username, email} {
		if _, err := s.users.GetByLogin(ctx, login); err == nil {
			return nil, apperror.Conflict("a user with this email or username already exists")
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/account: checking existing user: %w", err)
		}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: %w", err)
	}

	avatarURL, err := s.media.Upload(ctx, in.AvatarPath)
	if err != nil {
		return nil, apperror.Dependency("failed to upload avatar image", err)
	}

	coverURL := ""
	if in.CoverImagePath != "" {
		coverURL, err = s.media.Upload(ctx, in.CoverImagePath)
		if err != nil {
			// The avatar already made it to the media host; remove it so
			// the failed registration leaves nothing behind.
			s.deleteMedia(ctx, avatarURL)
			return nil, apperror.Dependency("failed to upload cover image", err)
		}
	}

	user := &model.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		FullName:      trimmed(in.FullName),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/account: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user.Sanitized(), nil
}

// Login verifies the credentials for a username or email, issues a token
// pair, and persists the refresh token as the account's single active
// session. Only the token field is written on this save.
func (s *AccountService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	if err := nonBlank("username or email", login); err != nil {
		return nil, err
	}
	if err := nonBlank("password", password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByLogin(ctx, normalizeLogin(login))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("service/account: looking up %q: %w", login, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, apperror.ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("service/account: verifying password: %w", err)
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user.Sanitized(), Tokens: pair}, nil
}

// Logout clears the stored refresh token for the account. Calling it when
// no session is active is a no-op, so the operation is idempotent.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("service/account: clearing refresh token: %w", err)
	}
	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// Refresh exchanges a presented refresh token for a new token pair.
//
// The token must verify against the refresh secret and must equal, byte
// for byte, the token currently stored on the account. That equality check
// is what invalidates stolen or superseded tokens and tokens of logged-out
// accounts. On success the new refresh token replaces the old one
// (rotation), so the presented token is single-use.
func (s *AccountService) Refresh(ctx context.Context, presented string) (*AuthResult, error) {
	if presented == "" {
		return nil, apperror.Unauthenticated("refresh token missing from request")
	}

	userID, err := s.tokens.ParseRefreshToken(presented)
	if err != nil {
		return nil, apperror.Forbidden("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("invalid or expired refresh token")
		}
		return nil, fmt.Errorf("service/account: loading user %s: %w", userID, err)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return nil, apperror.Forbidden("refresh token does not match the active session")
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("refresh token rotated", slog.String("userID", user.ID))

	return &AuthResult{User: user.Sanitized(), Tokens: pair}, nil
}

// ChangePassword verifies the old password and stores a hash of the new
// one. No other field is rehashed or rewritten.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := nonBlank("oldPassword", oldPassword); err != nil {
		return err
	}
	if err := nonBlank("newPassword", newPassword); err != nil {
		return err
	}
	if err := validPassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, apperror.ErrUnauthenticated) {
			return apperror.Unauthenticated("old password is incorrect")
		}
		return fmt.Errorf("service/account: verifying old password: %w", err)
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/account: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/account: storing new password: %w", err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// UpdateDetails changes fullName and/or email. At least one must be
// provided; an omitted field keeps its stored value.
func (s *AccountService) UpdateDetails(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	fullName = trimmed(fullName)
	email = normalizeLogin(email)

	if fullName == "" && email == "" {
		return nil, apperror.ValidationFailed("", "provide at least one of fullName or email")
	}
	if email != "" {
		if err := validEmail(email); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateDetails(ctx, userID, fullName, email); err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/account: updating details: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: reloading user %s: %w", userID, err)
	}
	return user.Sanitized(), nil
}

// UpdateAvatar uploads the staged image, persists its URL, and then
// removes the replaced image from the media host. The removal is best
// effort: a failure is logged, not surfaced, because the account already
// points at the new image.
func (s *AccountService) UpdateAvatar(ctx context.Context, userID, localPath string) (*model.User, error) {
	return s.replaceImage(ctx, userID, localPath,
		func(u *model.User) string { return u.AvatarURL },
		s.users.UpdateAvatar)
}

// UpdateCoverImage behaves like UpdateAvatar for the optional cover image.
// There may be no previous image to remove.
func (s *AccountService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*model.User, error) {
	return s.replaceImage(ctx, userID, localPath,
		func(u *model.User) string { return u.CoverImageURL },
		s.users.UpdateCoverImage)
}

// GetByID returns the sanitized account for the given id.
func (s *AccountService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// issueAndStore mints a token pair and persists the refresh half as the
// account's active session.
func (s *AccountService) issueAndStore(ctx context.Context, user *model.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("service/account: issuing access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("service/account: issuing refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, fmt.Errorf("service/account: storing refresh token: %w", err)
	}
	user.RefreshToken = refresh

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// replaceImage is the shared upload-persist-cleanup path for avatar and
// cover image updates.
func (s *AccountService) replaceImage(
	ctx context.Context,
	userID, localPath string,
	current func(*model.User) string,
	persist func(context.Context, string, string) error,
) (*model.User, error) {
	if localPath == "" {
		return nil, apperror.ValidationFailed("file", "an image file is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldURL := current(user)

	newURL, err := s.media.Upload(ctx, localPath)
	if err != nil {
		return nil, apperror.Dependency("failed to upload image", err)
	}

	if err := persist(ctx, userID, newURL); err != nil {
		s.deleteMedia(ctx, newURL)
		return nil, fmt.Errorf("service/account: storing image url: %w", err)
	}

	if oldURL != "" {
		s.deleteMedia(ctx, oldURL)
	}

	updated, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: reloading user %s: %w", userID, err)
	}
	return updated.Sanitized(), nil
}

// deleteMedia removes an object from the media host, logging rather than
// surfacing failures.
func (s *AccountService) deleteMedia(ctx context.Context, url string) {
	if err := s.media.Delete(ctx, url); err != nil {
		s.logger.Warn("failed to delete media object",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
}
