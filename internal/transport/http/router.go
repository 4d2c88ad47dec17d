package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bizpulse/internal/config"
	"bizpulse/internal/middleware"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Ingest    IngestService
	Analytics AnalyticsService
	DB        Pinger
	Cache     CacheBackend
	Registry  *prometheus.Registry
	Config    *config.Config
	Logger    *slog.Logger
}

// NewRouter assembles the full HTTP surface.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimiddleware.RealIP)
	if rl := deps.Config.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimit(rl.RPS, rl.Burst))
	}

	upload := NewUploadHandler(deps.Ingest, deps.Config.Ingest.MaxUploadMB, logger)
	analyticsHandler := NewAnalyticsHandler(deps.Analytics, logger)
	kpi := NewKPIHandler(deps.Analytics, deps.Config.Ingest.LabelsPath, logger)
	health := NewHealthHandler(deps.DB, deps.Cache)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/upload", upload.Routes())
		r.Mount("/analytics", analyticsHandler.Routes())
		r.Mount("/kpis", kpi.Routes())
	})

	r.Get("/healthz", health.Health)

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r
}
