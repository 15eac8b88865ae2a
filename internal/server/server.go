// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, database, services and HTTP routing
// into a running process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/unsocial/internal/config"
	"codeberg.org/oliverandrich/unsocial/internal/database"
	"codeberg.org/oliverandrich/unsocial/internal/handlers"
	appmw "codeberg.org/oliverandrich/unsocial/internal/middleware"
	"codeberg.org/oliverandrich/unsocial/internal/repository"
	"codeberg.org/oliverandrich/unsocial/internal/services/accounts"
	"codeberg.org/oliverandrich/unsocial/internal/services/credentials"
	"codeberg.org/oliverandrich/unsocial/internal/services/email"
	"codeberg.org/oliverandrich/unsocial/internal/services/follows"
	"codeberg.org/oliverandrich/unsocial/internal/services/profiles"
	"codeberg.org/oliverandrich/unsocial/internal/services/storage"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("jwt-secret must be set")
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"client_origin", cfg.Server.ClientOrigin,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Repository
	repo := repository.New(db)

	// Services
	creds := credentials.New(cfg.Auth.JWTSecret, cfg.Auth.BcryptCost)

	mailer, err := email.NewService(&cfg.SMTP, cfg.Server.ClientOrigin)
	if err != nil {
		return fmt.Errorf("failed to init mailer: %w", err)
	}

	store, err := storage.NewS3Store(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to init object store: %w", err)
	}

	accountsSvc := accounts.NewService(repo, creds, mailer, &cfg.Auth)
	followsSvc := follows.NewService(repo)
	profilesSvc := profiles.NewService(repo, store)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	setupMiddleware(e, cfg)

	// Routes
	h := handlers.New(accountsSvc, followsSvc, profilesSvc, &cfg.Auth)
	setupRoutes(e, h, creds, &cfg.Auth)

	// Start server
	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, creds *credentials.Service, authCfg *config.AuthConfig) {
	requireAuth := appmw.RequireAuth(creds, authCfg.CookieName)

	e.GET("/", h.Health)

	auth := e.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.PUT("/verify", h.Verify)
	auth.POST("/reset-password", h.ResetPasswordRequest)
	auth.PUT("/reset-password", h.ResetPassword)
	auth.GET("/me", h.Me, requireAuth)
	auth.GET("/logout", h.Logout, requireAuth)
	auth.GET("/change-password", h.ChangePasswordRequest, requireAuth)
	auth.PUT("/change-password", h.ChangePassword, requireAuth)

	profile := e.Group("/profile", requireAuth)
	profile.PUT("", h.UpdateProfile)
	profile.GET("/:id", h.Profile)
	profile.GET("/:id/followers", h.Followers)
	profile.GET("/:id/followings", h.Followings)
	profile.PUT("/:id/follow", h.FollowProfile)
	profile.PUT("/:id/unfollow", h.UnfollowProfile)

	e.GET("/users", h.Users, requireAuth)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
