package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the ingestion pipeline and the
// cache layer. A single instance is created at startup and injected into the
// components that record to it.
type Metrics struct {
	RowsProcessed  prometheus.Counter
	RowsSkipped    prometheus.Counter
	UploadDuration prometheus.Histogram
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheFallbacks prometheus.Counter
}

// NewMetrics registers the application collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bizpulse",
			Subsystem: "ingest",
			Name:      "rows_processed_total",
			Help:      "Rows successfully converted into orders.",
		}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bizpulse",
			Subsystem: "ingest",
			Name:      "rows_skipped_total",
			Help:      "Rows dropped because an entity failed to resolve.",
		}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bizpulse",
			Subsystem: "ingest",
			Name:      "upload_duration_seconds",
			Help:      "End-to-end duration of a single upload.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizpulse",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by backend.",
		}, []string{"backend"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizpulse",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by backend.",
		}, []string{"backend"}),
		CacheFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bizpulse",
			Subsystem: "cache",
			Name:      "fallbacks_total",
			Help:      "Operations served by the local map after a Redis failure.",
		}),
	}
}

// NopMetrics returns a metrics instance backed by a throwaway registry.
// Useful for tests and components constructed without observability.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
