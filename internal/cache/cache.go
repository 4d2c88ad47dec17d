// Package cache implements the analytics cache layer: a Redis-backed
// key/value store with TTLs that degrades transparently to an in-process map
// whenever the remote backend is unreachable. Backend failures are never
// surfaced to callers.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"bizpulse/internal/config"
	"bizpulse/internal/infrastructure"
)

// Service is the cache layer. Construct it with New and inject it into the
// components that need it; there is no package-level singleton.
type Service struct {
	rdb     *redis.Client
	logger  *slog.Logger
	metrics *infrastructure.Metrics

	mu    sync.RWMutex
	local map[string]entry
}

type entry struct {
	value   []byte
	expires time.Time
}

// New creates a cache service. When cfg.Addr is empty the service runs on
// local memory only.
func New(cfg config.RedisConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NopMetrics()
	}

	var rdb *redis.Client
	if cfg.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.DialTimeout,
		})
	}

	return &Service{
		rdb:     rdb,
		logger:  logger.With(slog.String("component", "cache")),
		metrics: metrics,
		local:   make(map[string]entry),
	}
}

// Get returns the cached value for key, or ok=false on a miss. A Redis
// failure counts as a miss against the local map, never as an error.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			s.metrics.CacheHits.WithLabelValues("redis").Inc()
			return val, true
		case errors.Is(err, redis.Nil):
			s.metrics.CacheMisses.WithLabelValues("redis").Inc()
		default:
			s.logger.WarnContext(ctx, "redis get failed, falling back to memory",
				"key", key, "error", err)
			s.metrics.CacheFallbacks.Inc()
		}
	}

	s.mu.RLock()
	e, ok := s.local[key]
	s.mu.RUnlock()
	if !ok {
		s.metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, false
	}
	if time.Now().After(e.expires) {
		s.mu.Lock()
		delete(s.local, key)
		s.mu.Unlock()
		s.metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, false
	}

	s.metrics.CacheHits.WithLabelValues("memory").Inc()
	return e.value, true
}

// Set stores a value under key for the given TTL. On Redis failure the value
// is kept in the local map so repeated reads are still served.
func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Minute
	}

	if s.rdb != nil {
		err := s.rdb.Set(ctx, key, value, ttl).Err()
		if err == nil {
			return
		}
		s.logger.WarnContext(ctx, "redis set failed, caching in memory",
			"key", key, "error", err)
		s.metrics.CacheFallbacks.Inc()
	}

	s.mu.Lock()
	s.local[key] = entry{value: value, expires: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// Clear drops every cached entry in both tiers. Called after each successful
// ingestion commit so analytics reads are forced fresh.
func (s *Service) Clear(ctx context.Context) {
	if s.rdb != nil {
		if err := s.rdb.FlushDB(ctx).Err(); err != nil {
			s.logger.WarnContext(ctx, "redis flush failed", "error", err)
		}
	}

	s.mu.Lock()
	s.local = make(map[string]entry)
	s.mu.Unlock()
}

// Backend reports which tier currently serves the cache: "redis" when the
// configured backend answers pings, otherwise "memory".
func (s *Service) Backend(ctx context.Context) string {
	if s.rdb != nil && s.rdb.Ping(ctx).Err() == nil {
		return "redis"
	}
	return "memory"
}

// Close releases the Redis connection if one was configured.
func (s *Service) Close() error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}
