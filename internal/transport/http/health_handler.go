package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Pinger is the database liveness check. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CacheBackend reports which cache tier is active.
type CacheBackend interface {
	Backend(ctx context.Context) string
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	db    Pinger
	cache CacheBackend
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db Pinger, cache CacheBackend) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health reports overall service health. The database is load-bearing; the
// cache backend is informational since the memory tier always works.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "up"
	code := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		status = "unhealthy"
		dbStatus = "down"
		code = http.StatusServiceUnavailable
	}

	render.Status(r, code)
	render.JSON(w, r, map[string]any{
		"status":        status,
		"database":      dbStatus,
		"cache_backend": h.cache.Backend(ctx),
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}
