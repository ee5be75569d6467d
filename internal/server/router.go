package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/tally/internal/server/handlers"
	"github.com/agentstation/tally/internal/server/middleware"
	"github.com/agentstation/tally/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()
	s.applyMiddleware(r)

	h := handlers.New(s.tally, s.logger, s.config.MaxUploadSize, s.app.Version(), s.startTime)

	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if s.config.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route(s.config.PathPrefix, func(r chi.Router) {
		s.registerRoutes(r, h)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, "Route not found", req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.MethodNotAllowed(w, req.Method)
	})

	return r
}

// registerRoutes registers all API routes below the path prefix.
func (s *Server) registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Get("/health", h.HandleHealth)
	r.Get("/configs", h.HandleConfigs)

	r.Route("/databases", func(r chi.Router) {
		r.Get("/", h.HandleListDatasets)
		r.Delete("/{name}", h.HandleDeleteDataset)
		r.Get("/{name}/export", h.HandleExport)
		r.Post("/{name}/regenerate-ids", h.HandleRegenerate)
	})

	r.Route("/csv/{database}", func(r chi.Router) {
		r.Get("/rows", h.HandleListRows)
		r.Post("/rows", h.HandleInsertRow)
		r.Get("/rows/{index}", h.HandleGetRowAt)
		r.Put("/rows/{index}", h.HandleUpdateRowAt)
		r.Delete("/rows/{index}", h.HandleDeleteRowAt)
		r.Get("/row/{id}", h.HandleGetRow)
		r.Put("/row/{id}", h.HandleUpdateRow)
		r.Delete("/row/{id}", h.HandleDeleteRow)
		r.Get("/findRowIndex/{id}", h.HandleFindRowIndex)
	})

	r.Post("/analyze/excel", h.HandleAnalyze)
	r.Post("/upload/excel", h.HandleUpload)
	r.Get("/stats/{database}", h.HandleStats)
}

// applyMiddleware installs the middleware stack in order.
func (s *Server) applyMiddleware(r chi.Router) {
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recovery(s.logger))

	if s.config.CORSEnabled {
		cfg := middleware.DefaultCORSConfig()
		if len(s.config.CORSOrigins) > 0 {
			cfg.AllowedOrigins = s.config.CORSOrigins
		} else {
			cfg.AllowAll = true
		}
		r.Use(middleware.CORS(cfg))
	}

	if s.config.RateLimit > 0 {
		if s.limiter == nil {
			s.limiter = middleware.NewRateLimiter(s.config.RateLimit, s.logger)
		}
		r.Use(middleware.RateLimit(s.limiter))
	}

	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}
}
