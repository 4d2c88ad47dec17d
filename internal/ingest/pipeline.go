package ingest

import (
	"context"
	"log/slog"
	"time"

	"bizpulse/internal/cache"
	"bizpulse/internal/config"
	"bizpulse/internal/infrastructure"
	"bizpulse/internal/store"
)

// Classification tags returned to the caller.
const (
	TypeSales    = "sales"
	TypeNotSales = "not sales data"
)

// Result is the ingestion response.
type Result struct {
	Message          string     `json:"message"`
	RecordsProcessed int        `json:"records_processed"`
	RowsSkipped      int        `json:"rows_skipped"`
	Type             string     `json:"type"`
	Cleaning         CleanStats `json:"cleaning"`
}

// Service orchestrates the full ingestion pipeline: parse, map, clean,
// resolve, write, then invalidate the cache. One upload runs in one
// transaction; any failure rolls back everything written for it.
type Service struct {
	store    *store.Store
	cache    *cache.Service
	cleaner  *Cleaner
	resolver *Resolver
	writer   *Writer
	cfg      config.IngestConfig
	metrics  *infrastructure.Metrics
	logger   *slog.Logger
}

// NewService wires the pipeline components.
func NewService(st *store.Store, cacheSvc *cache.Service, cfg config.IngestConfig, metrics *infrastructure.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NopMetrics()
	}
	logger = logger.With(slog.String("component", "ingest"))

	return &Service{
		store:    st,
		cache:    cacheSvc,
		cleaner:  NewCleaner(logger),
		resolver: NewResolver(st, logger),
		writer:   NewWriter(st, cfg.BatchSize, logger),
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Ingest processes one uploaded file end to end and returns the record
// counts. Decode and parse failures reject the input; persistence failures
// roll back the whole upload.
func (s *Service) Ingest(ctx context.Context, content []byte, filename string) (*Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.UploadDuration.Observe(time.Since(start).Seconds())
	}()

	s.logger.InfoContext(ctx, "upload started",
		"filename", filename,
		"bytes", len(content),
	)

	ds, err := ParseFile(content, filename)
	if err != nil {
		return nil, err
	}

	mapping := MapColumns(ds.Headers)

	// Side-channel artifact for filter-option listings; failure to write it
	// must not fail the upload.
	if err := WriteLabels(s.cfg.LabelsPath, DatasetLabels{
		CategoryLabel: mapping.CategoryLabel,
		RegionLabel:   mapping.RegionLabel,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to save dataset labels", "error", err)
	}

	if !mapping.HasSalesData() {
		s.logger.InfoContext(ctx, "no usable sales columns found",
			"filename", filename,
			"headers", ds.Headers,
		)
		return &Result{
			Message: "File accepted but no sales columns were recognized",
			Type:    TypeNotSales,
		}, nil
	}

	rows, stats := s.cleaner.Clean(ds, mapping)

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lookups, err := s.resolver.Resolve(ctx, tx, rows)
	if err != nil {
		return nil, err
	}

	written, err := s.writer.Write(ctx, tx, rows, lookups)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// Analytics must not serve stale aggregates after new data lands.
	s.cache.Clear(ctx)

	s.metrics.RowsProcessed.Add(float64(written.Processed))
	s.metrics.RowsSkipped.Add(float64(written.Skipped))

	s.logger.InfoContext(ctx, "upload committed",
		"filename", filename,
		"records_processed", written.Processed,
		"rows_skipped", written.Skipped,
		"duplicates_removed", stats.DuplicatesRemoved,
		"duration", time.Since(start).String(),
	)

	return &Result{
		Message:          "Sales Data Imported Successfully",
		RecordsProcessed: written.Processed,
		RowsSkipped:      written.Skipped,
		Type:             TypeSales,
		Cleaning:         stats,
	}, nil
}

// Clear removes all persisted data and invalidates the cache.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.TruncateAll(ctx); err != nil {
		return err
	}
	s.cache.Clear(ctx)
	s.logger.InfoContext(ctx, "all data cleared")
	return nil
}
