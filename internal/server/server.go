// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipelines and the saved-restaurant store
// over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pdiddy/tablescout/internal/search"
	"github.com/pdiddy/tablescout/internal/watchlist"
	"github.com/pdiddy/tablescout/pkg/types"
)

// Default HTTP server settings.
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Searcher runs the two search tiers. *search.Aggregator satisfies it.
type Searcher interface {
	Lookup(ctx context.Context, req types.SearchRequest) (types.LookupResult, error)
	Enrich(ctx context.Context, name, location string, mode search.Mode, limit int) ([]types.CanonicalRecord, error)
	Policy() *search.Policy
}

// SavedStore persists per-user saved restaurants. *watchlist.Store
// satisfies it.
type SavedStore interface {
	Save(ctx context.Context, userID string, rec types.CanonicalRecord, a types.Annotation) (types.SavedRestaurant, error)
	Get(ctx context.Context, userID, restaurantID string) (types.SavedRestaurant, error)
	IDs(ctx context.Context, userID string) ([]string, error)
	List(ctx context.Context, userID string, opts watchlist.ListOptions) ([]types.SavedRestaurant, error)
	Update(ctx context.Context, userID, restaurantID string, p types.AnnotationPatch) (types.SavedRestaurant, error)
	Delete(ctx context.Context, userID, restaurantID string) error
	ExportJSON(ctx context.Context, userID string, w io.Writer) error
	ExportYAML(ctx context.Context, userID string, w io.Writer) error
}

// Server routes API requests to the search pipelines and the saved store.
type Server struct {
	search Searcher
	saved  SavedStore
	router  *mux.Router
	handler http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSavedStore enables the saved-restaurant routes.
func WithSavedStore(store SavedStore) Option {
	return func(s *Server) { s.saved = store }
}

// New builds a Server and registers its routes.
func New(searcher Searcher, opts ...Option) *Server {
	s := &Server{
		search: searcher,
		router: mux.NewRouter(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.routes()
	// Wrapped outside the router so unmatched paths and methods are logged too.
	s.handler = requestID(s.accessLog(s.router))
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg types.ServerConfig) error {
	cfg = withDefaults(cfg)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func withDefaults(cfg types.ServerConfig) types.ServerConfig {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return cfg
}
