// Package server wires the application together: it builds the dependency
// graph (store, token and password services, media storage, account
// service, handlers), mounts the routes, and runs the HTTP server with
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/userhub/internal/auth"
	"github.com/sakif/userhub/internal/config"
	"github.com/sakif/userhub/internal/handler"
	"github.com/sakif/userhub/internal/media"
	"github.com/sakif/userhub/internal/middleware"
	sqliteRepo "github.com/sakif/userhub/internal/repository/sqlite"
	"github.com/sakif/userhub/internal/service"
)

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. Each layer receives only what
// it needs: the service gets the repository interface, the handlers get
// the service, the router gets the handlers.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	mediaStore, err := media.NewS3Storage(context.Background(), media.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating media storage: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, mediaStore)

	return s, nil
}

// setupRoutes mounts middleware and the user route table.
func (s *Server) setupRoutes(tokens *auth.TokenService, mediaStore media.Storage) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	accounts := service.NewAccountService(
		s.db,
		tokens,
		auth.NewPasswordService(),
		mediaStore,
		s.logger,
	)
	accountHandler := handler.NewAccountHandler(accounts, s.logger, handler.Options{
		TempDir:         s.cfg.TempDir,
		CookieSecure:    s.cfg.CookieSecure,
		AccessTokenTTL:  tokens.AccessTTL(),
		RefreshTokenTTL: tokens.RefreshTTL(),
	})

	requireAuth := auth.RequireAuth(tokens, s.db)

	s.router.Route("/api/v1/users", func(r chi.Router) {
		// Public: no valid access token required.
		r.Post("/register", accountHandler.HandleRegister)
		r.Post("/login", accountHandler.HandleLogin)
		r.Post("/refresh-token", accountHandler.HandleRefresh)

		// Protected: the verifier middleware resolves the account first.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", accountHandler.HandleLogout)
			r.Patch("/change-password", accountHandler.HandleChangePassword)
			r.Get("/me", accountHandler.HandleMe)
			r.Put("/update-account", accountHandler.HandleUpdateAccount)
			r.Put("/update-avatar", accountHandler.HandleUpdateAvatar)
			r.Put("/update-coverimage", accountHandler.HandleUpdateCoverImage)
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
