package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bizpulse/internal/errors"
	"bizpulse/internal/ingest"
	"bizpulse/internal/store"
)

// KPIHandler serves the headline KPI endpoints. Unlike the exploratory
// analytics, these surface store failures as errors.
type KPIHandler struct {
	service    AnalyticsService
	labelsPath string
	logger     *slog.Logger
}

// NewKPIHandler creates a KPI handler. labelsPath locates the dataset label
// artifact written on upload.
func NewKPIHandler(service AnalyticsService, labelsPath string, logger *slog.Logger) *KPIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KPIHandler{
		service:    service,
		labelsPath: labelsPath,
		logger:     logger.With(slog.String("component", "kpi_handler")),
	}
}

// Routes returns the KPI routes.
func (h *KPIHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overview", h.Overview)
	r.Get("/revenue/category", h.RevenueByCategory)
	r.Get("/revenue/region", h.RevenueByRegion)
	r.Get("/revenue/trend", h.RevenueTrend)

	return r
}

// Overview handles GET /api/kpis/overview.
func (h *KPIHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "overview query failed", "error", err)
		apierrors.WriteError(w, apierrors.ErrInternalServer)
		return
	}
	render.Respond(w, r, overview)
}

// RevenueByCategory handles GET /api/kpis/revenue/category. The label echoes
// how the source file named its category column.
func (h *KPIHandler) RevenueByCategory(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RevenueByCategory(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "revenue by category query failed", "error", err)
		apierrors.WriteError(w, apierrors.ErrInternalServer)
		return
	}

	labels, _ := ingest.ReadLabels(h.labelsPath)
	render.Respond(w, r, map[string]any{
		"label": labels.CategoryLabel,
		"data":  result,
	})
}

// RevenueByRegion handles GET /api/kpis/revenue/region.
func (h *KPIHandler) RevenueByRegion(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RevenueByRegion(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "revenue by region query failed", "error", err)
		apierrors.WriteError(w, apierrors.ErrInternalServer)
		return
	}

	labels, _ := ingest.ReadLabels(h.labelsPath)
	render.Respond(w, r, map[string]any{
		"label": labels.RegionLabel,
		"data":  result,
	})
}

// RevenueTrend handles GET /api/kpis/revenue/trend with optional category,
// region and min_order_value filters.
func (h *KPIHandler) RevenueTrend(w http.ResponseWriter, r *http.Request) {
	filter := store.RevenueFilter{
		Category: r.URL.Query().Get("category"),
		Region:   r.URL.Query().Get("region"),
	}
	if raw := r.URL.Query().Get("min_order_value"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			apierrors.WriteError(w, apierrors.ErrValidation("min_order_value", "must be a number"))
			return
		}
		filter.MinOrderValue = parsed
	}

	result, err := h.service.RevenueTrend(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "revenue trend query failed", "error", err)
		apierrors.WriteError(w, apierrors.ErrInternalServer)
		return
	}
	render.Respond(w, r, map[string]any{"trend": result})
}
