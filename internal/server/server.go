// Package server provides the HTTP API for tally datasets.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/metrics"
	"github.com/agentstation/tally/internal/server/middleware"
	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/records"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app       application.Application
	tally     tally.Tally
	registry  *prometheus.Registry
	metrics   *metrics.HTTP
	limiter   *middleware.RateLimiter
	logger    *zerolog.Logger
	config    Config
	startTime time.Time
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()
	logger.Debug().Msg("Creating new server instance")

	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api"
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = constants.MaxUploadSize
	}

	t, err := app.Tally()
	if err != nil {
		return nil, err
	}

	// Request metrics share the engine's registry so /metrics serves both.
	registry := app.Metrics()
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		app:       app,
		tally:     t,
		registry:  registry,
		metrics:   metrics.NewHTTP(registry),
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
	s.connectHooks()

	logger.Debug().Msg("Server instance created successfully")
	return s, nil
}

// connectHooks logs dataset changes made through the engine.
func (s *Server) connectHooks() {
	s.tally.OnRecordAdded(func(dataset string, rec records.Record) {
		s.logger.Debug().Str("dataset", dataset).Int("fields", rec.Len()).Msg("Record added")
	})
	s.tally.OnRecordRemoved(func(dataset string, rec records.Record) {
		s.logger.Debug().Str("dataset", dataset).Int("fields", rec.Len()).Msg("Record removed")
	})
	s.tally.OnImported(func(stats ingest.Stats) {
		s.logger.Info().
			Str("dataset", stats.Dataset).
			Int("added", stats.NewRecords).
			Int("duplicates", stats.DuplicatesSkipped).
			Msg("Import persisted")
	})
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer returns an http.Server for the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.HTTPServer()
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}

// Close releases background resources held by the middleware.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
