package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/artpar/assetdesk/internal/core/validation"
	"github.com/artpar/assetdesk/internal/shell/api"
	apimw "github.com/artpar/assetdesk/internal/shell/api/middleware"
	"github.com/artpar/assetdesk/internal/shell/media"
	"github.com/artpar/assetdesk/internal/shell/seed"
	"github.com/artpar/assetdesk/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitStorageError    = 3
	ExitHTTPServerError = 4
	ExitSeedError       = 5
)

// =============================================================================
// Server
// =============================================================================

// Server represents the assetdesk application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	logger     *slog.Logger
}

// NewServer opens the database and image store, applies the seed file if
// one is configured, and builds the HTTP server.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	if err := ensureParentDir(cfg.Database.DSN); err != nil {
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitDatabaseError}
	}

	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitDatabaseError}
	}

	images, err := media.NewDiskStore(cfg.Storage.UploadDir)
	if err != nil {
		s.Close()
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitStorageError}
	}

	if cfg.Seed.Path != "" {
		if err := applySeed(ctx, s, cfg.Seed.Path, logger); err != nil {
			s.Close()
			return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitSeedError}
		}
	}

	authorizer, err := auth.NewAuthorizer()
	if err != nil {
		s.Close()
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitConfigError}
	}

	handler, err := api.NewHandler(api.Config{
		Store:      s,
		Images:     images,
		Authorizer: authorizer,
		Logger:     logger,
		ImagePolicy: validation.ImagePolicy{
			MaxBytes:     cfg.Storage.MaxImageBytes,
			AllowedTypes: cfg.Storage.AllowedTypes,
		},
		Auth: apimw.AuthConfig{
			Mode:          cfg.Auth.Mode,
			DefaultTenant: cfg.Auth.DefaultTenant,
			SharedSecret:  cfg.Auth.SharedSecret,
			Logger:        logger,
		},
	})
	if err != nil {
		s.Close()
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitConfigError}
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server configured",
		"auth_mode", cfg.Auth.Mode,
		"upload_dir", cfg.Storage.UploadDir,
		"max_image_bytes", cfg.Storage.MaxImageBytes,
	)

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		logger:     logger,
	}, nil
}

func applySeed(ctx context.Context, s store.Store, path string, logger *slog.Logger) error {
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	res, err := seed.NewSeeder(s, logger).Apply(ctx, f)
	if err != nil {
		return err
	}
	logger.Info("seed applied", "path", path, "created", res.Created, "skipped", res.Skipped)
	return nil
}

// ensureParentDir creates the directory holding a file DSN.
func ensureParentDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.store.Close()
		return &ServerError{Op: "Start", Err: err, ExitCode: ExitHTTPServerError}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
