package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger      *slog.Logger
	CORSOrigins []string
	Environment string
	// Registry receives the HTTP metrics and backs /metrics. Nil disables both.
	Registry *prometheus.Registry
	// Health reports backing store reachability for /health.
	Health         func(ctx context.Context) error
	RequestTimeout time.Duration
}

// NewRouter assembles the HTTP surface of the content service.
func NewRouter(service sitecontent.Service, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	r.Use(CORSMiddleware(opts.CORSOrigins))
	if opts.Registry != nil {
		r.Use(NewHTTPMetrics(opts.Registry).Middleware)
	}
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "healthy", "environment": opts.Environment}
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "err", err)
				status["status"] = "unhealthy"
				render.Status(r, http.StatusServiceUnavailable)
			}
		}
		render.JSON(w, r, status)
	})

	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/api/", func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, "Atlas content API", map[string]string{"version": "1.0.0"})
	})
	r.Mount("/api/content", NewHandler(service, logger).Routes())

	return r
}
