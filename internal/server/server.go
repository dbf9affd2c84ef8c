// Package server wires the snapshot backend together: storage, service,
// handlers, middleware and routes, plus the HTTP server lifecycle.
//
// DEPENDENCY CHAIN:
//
//	sqlite.Store (data dir) → service.SnapshotService → handler.SnapshotHandler → routes
//
// Everything is assembled in New, the composition root. main.go only reads
// config and calls Start.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/fitness-tracker/internal/handler"
	"github.com/sakif/fitness-tracker/internal/middleware"
	sqliteRepo "github.com/sakif/fitness-tracker/internal/repository/sqlite"
	"github.com/sakif/fitness-tracker/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port           int
	DataDir        string   // directory holding one <username>.db per user
	AllowedOrigins []string // CORS origins; "*" or empty allows all
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The server holds no open database. Each request opens its user's file and
// closes it before returning, so shutdown only has to drain HTTP requests.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  *sqliteRepo.Store
}

// New creates a Server with all routes mounted. The data directory is created
// if it does not exist.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	// IMPORT ALIAS: repository/sqlite is imported as sqliteRepo so it is not
	// confused with the modernc.org/sqlite driver.
	store, err := sqliteRepo.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening data directory: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
//
//	POST /api/save-data                          → store a snapshot
//	GET  /api/get-data-history/{username}        → snapshot summaries, newest first
//	GET  /api/get-data-snapshot/{username}/{id}  → one snapshot with its payload
//	GET  /api/get-data/{username}                → current state
//	GET  /api/status                             → liveness
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger and handlers can read the id. CORS sits
// after Recoverer so even a panicking request carries the CORS headers.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         600,
	}))

	snapshotService := service.NewSnapshotService(s.store, s.logger)
	snapshotHandler := handler.NewSnapshotHandler(snapshotService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/save-data", snapshotHandler.HandleSave)
		r.Get("/get-data-history/{username}", snapshotHandler.HandleHistory)
		r.Get("/get-data-snapshot/{username}/{id}", snapshotHandler.HandleSnapshot)
		r.Get("/get-data/{username}", snapshotHandler.HandleCurrent)
		r.Get("/status", snapshotHandler.HandleStatus)
	})
}

// Start runs the HTTP server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled. In-flight requests get 30 seconds to finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/api", s.config.Port)),
			slog.String("data_dir", s.store.Dir()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
