package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bizpulse/internal/analytics"
	"bizpulse/internal/model"
	"bizpulse/internal/store"
)

// AnalyticsService is the analytics read surface the handlers need.
type AnalyticsService interface {
	RetentionCohorts(ctx context.Context) []analytics.Cohort
	Affinity(ctx context.Context) []analytics.Pair
	RevenueForecast(ctx context.Context, days int) []model.RevenuePoint
	MarketingPerformance(ctx context.Context) []analytics.ChannelPerformance
	Overview(ctx context.Context) (analytics.Overview, error)
	RevenueByCategory(ctx context.Context) ([]model.CategoryRevenue, error)
	RevenueByRegion(ctx context.Context) ([]model.RegionRevenue, error)
	RevenueTrend(ctx context.Context, f store.RevenueFilter) ([]model.RevenuePoint, error)
}

// AnalyticsHandler serves the exploratory analytics endpoints. These degrade
// to empty payloads rather than erroring when the underlying data is
// unavailable.
type AnalyticsHandler struct {
	service AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(service AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With(slog.String("component", "analytics_handler")),
	}
}

// Routes returns the analytics routes.
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/retention", h.Retention)
	r.Get("/affinity", h.Affinity)
	r.Get("/forecast", h.Forecast)
	r.Get("/marketing", h.Marketing)

	return r
}

// Retention handles GET /api/analytics/retention.
func (h *AnalyticsHandler) Retention(w http.ResponseWriter, r *http.Request) {
	render.Respond(w, r, map[string]any{
		"cohorts": h.service.RetentionCohorts(r.Context()),
	})
}

// Affinity handles GET /api/analytics/affinity.
func (h *AnalyticsHandler) Affinity(w http.ResponseWriter, r *http.Request) {
	render.Respond(w, r, map[string]any{
		"pairs": h.service.Affinity(r.Context()),
	})
}

// Forecast handles GET /api/analytics/forecast?days=30.
func (h *AnalyticsHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.logger.DebugContext(r.Context(), "ignoring invalid days parameter", "days", raw)
		} else {
			days = parsed
		}
	}

	render.Respond(w, r, map[string]any{
		"trend": h.service.RevenueForecast(r.Context(), days),
	})
}

// Marketing handles GET /api/analytics/marketing.
func (h *AnalyticsHandler) Marketing(w http.ResponseWriter, r *http.Request) {
	render.Respond(w, r, map[string]any{
		"channels": h.service.MarketingPerformance(r.Context()),
	})
}
