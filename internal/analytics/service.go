package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"bizpulse/internal/cache"
	"bizpulse/internal/config"
	"bizpulse/internal/model"
	"bizpulse/internal/store"
)

// Store is the read surface the calculators consume.
type Store interface {
	OrderStamps(ctx context.Context) ([]model.OrderStamp, error)
	OrderProducts(ctx context.Context) ([]model.OrderProduct, error)
	TotalOrders(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context, from, to *time.Time) (float64, error)
	OrderCount(ctx context.Context, from, to *time.Time) (int64, error)
	DailyRevenue(ctx context.Context, f store.RevenueFilter) ([]model.RevenuePoint, error)
	RevenueByCategory(ctx context.Context) ([]model.CategoryRevenue, error)
	RevenueByRegion(ctx context.Context) ([]model.RegionRevenue, error)
	MarketingChannels(ctx context.Context) ([]model.MarketingChannel, error)
	ChannelStats(ctx context.Context, channelID int64) (model.ChannelStats, error)
}

// Overview is the headline KPI block.
type Overview struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TotalOrders      int64   `json:"total_orders"`
	AvgOrderValue    float64 `json:"avg_order_value"`
	RevenueThisMonth float64 `json:"revenue_this_month"`
	RevenueLastMonth float64 `json:"revenue_last_month"`
	RevenueGrowthPct float64 `json:"revenue_growth_pct"`
}

// ChannelPerformance is one marketing channel with its attribution metrics.
type ChannelPerformance struct {
	Channel         string  `json:"channel"`
	Spend           float64 `json:"spend"`
	Revenue         float64 `json:"revenue"`
	Conversions     int64   `json:"conversions"`
	UniqueCustomers int64   `json:"unique_customers"`
	ROAS            float64 `json:"roas"`
	CAC             float64 `json:"cac"`
	CPA             float64 `json:"cpa"`
}

const cachePrefix = "analytics"

// Service serves the analytics and KPI read operations, memoizing each
// result through the cache layer. The exploratory analytics (retention,
// affinity, forecast, marketing) degrade to empty results on store failure;
// the KPI operations surface their errors.
type Service struct {
	store     Store
	cache     *cache.Service
	ingestCfg config.IngestConfig
	cacheCfg  config.CacheConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates the analytics service.
func NewService(st Store, cacheSvc *cache.Service, ingestCfg config.IngestConfig, cacheCfg config.CacheConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		cache:     cacheSvc,
		ingestCfg: ingestCfg,
		cacheCfg:  cacheCfg,
		logger:    logger.With(slog.String("component", "analytics")),
		now:       time.Now,
	}
}

// RetentionCohorts returns monthly retention cohorts. Store failure degrades
// to an empty list.
func (s *Service) RetentionCohorts(ctx context.Context) []Cohort {
	cohorts, err := cache.Memoize(ctx, s.cache, cachePrefix, "retention", nil, s.cacheCfg.AnalyticsTTL,
		func(ctx context.Context) ([]Cohort, error) {
			stamps, err := s.store.OrderStamps(ctx)
			if err != nil {
				return nil, err
			}
			return ComputeCohorts(stamps), nil
		})
	if err != nil {
		s.logger.WarnContext(ctx, "retention computation failed", "error", err)
		return []Cohort{}
	}
	return cohorts
}

// Affinity returns the mined product pairs. Store failure degrades to an
// empty list.
func (s *Service) Affinity(ctx context.Context) []Pair {
	pairs, err := cache.Memoize(ctx, s.cache, cachePrefix, "affinity", nil, s.cacheCfg.AnalyticsTTL,
		func(ctx context.Context) ([]Pair, error) {
			items, err := s.store.OrderProducts(ctx)
			if err != nil {
				return nil, err
			}
			total, err := s.store.TotalOrders(ctx)
			if err != nil {
				return nil, err
			}
			return ComputeAffinity(items, total, s.ingestCfg.MinSupport, s.ingestCfg.MaxPairs), nil
		})
	if err != nil {
		s.logger.WarnContext(ctx, "affinity computation failed", "error", err)
		return []Pair{}
	}
	return pairs
}

// RevenueForecast returns the daily revenue history extended with days of
// forecast. A non-positive days falls back to the configured horizon. Store
// failure degrades to an empty list.
func (s *Service) RevenueForecast(ctx context.Context, days int) []model.RevenuePoint {
	if days <= 0 {
		days = s.ingestCfg.ForecastDays
	}
	points, err := cache.Memoize(ctx, s.cache, cachePrefix, "forecast",
		map[string]any{"days": days}, s.cacheCfg.AnalyticsTTL,
		func(ctx context.Context) ([]model.RevenuePoint, error) {
			history, err := s.store.DailyRevenue(ctx, store.RevenueFilter{})
			if err != nil {
				return nil, err
			}
			return Forecast(history, days), nil
		})
	if err != nil {
		s.logger.WarnContext(ctx, "forecast computation failed", "error", err)
		return []model.RevenuePoint{}
	}
	return points
}

// MarketingPerformance returns every channel with its attribution metrics,
// sorted by ROAS descending. Store failure degrades to an empty list.
func (s *Service) MarketingPerformance(ctx context.Context) []ChannelPerformance {
	perf, err := cache.Memoize(ctx, s.cache, cachePrefix, "marketing", nil, s.cacheCfg.AnalyticsTTL,
		func(ctx context.Context) ([]ChannelPerformance, error) {
			channels, err := s.store.MarketingChannels(ctx)
			if err != nil {
				return nil, err
			}

			out := make([]ChannelPerformance, 0, len(channels))
			for _, ch := range channels {
				stats, err := s.store.ChannelStats(ctx, ch.ID)
				if err != nil {
					return nil, err
				}
				out = append(out, channelPerformance(ch, stats))
			}
			sort.SliceStable(out, func(i, j int) bool { return out[i].ROAS > out[j].ROAS })
			return out, nil
		})
	if err != nil {
		s.logger.WarnContext(ctx, "marketing performance computation failed", "error", err)
		return []ChannelPerformance{}
	}
	return perf
}

func channelPerformance(ch model.MarketingChannel, stats model.ChannelStats) ChannelPerformance {
	p := ChannelPerformance{
		Channel:         ch.Name,
		Spend:           ch.Spend,
		Revenue:         round2(stats.Revenue),
		Conversions:     stats.Conversions,
		UniqueCustomers: stats.UniqueCustomers,
	}
	if ch.Spend > 0 {
		p.ROAS = round2(stats.Revenue / ch.Spend)
	}
	if stats.UniqueCustomers > 0 {
		p.CAC = round2(ch.Spend / float64(stats.UniqueCustomers))
	}
	if stats.Conversions > 0 {
		p.CPA = round2(ch.Spend / float64(stats.Conversions))
	}
	return p
}

// Overview returns the headline KPIs.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	return cache.Memoize(ctx, s.cache, cachePrefix, "overview", nil, s.cacheCfg.KPITTL,
		func(ctx context.Context) (Overview, error) {
			total, err := s.store.TotalRevenue(ctx, nil, nil)
			if err != nil {
				return Overview{}, err
			}
			orders, err := s.store.OrderCount(ctx, nil, nil)
			if err != nil {
				return Overview{}, err
			}

			now := s.now().UTC()
			thisStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
			lastStart := thisStart.AddDate(0, -1, 0)
			lastEnd := thisStart.Add(-time.Nanosecond)

			thisMonth, err := s.store.TotalRevenue(ctx, &thisStart, nil)
			if err != nil {
				return Overview{}, err
			}
			lastMonth, err := s.store.TotalRevenue(ctx, &lastStart, &lastEnd)
			if err != nil {
				return Overview{}, err
			}

			o := Overview{
				TotalRevenue:     round2(total),
				TotalOrders:      orders,
				RevenueThisMonth: round2(thisMonth),
				RevenueLastMonth: round2(lastMonth),
			}
			if orders > 0 {
				o.AvgOrderValue = round2(total / float64(orders))
			}
			if lastMonth > 0 {
				o.RevenueGrowthPct = round2((thisMonth - lastMonth) / lastMonth * 100)
			}
			return o, nil
		})
}

// RevenueByCategory returns revenue per product category, highest first.
func (s *Service) RevenueByCategory(ctx context.Context) ([]model.CategoryRevenue, error) {
	return cache.Memoize(ctx, s.cache, cachePrefix, "revenue_by_category", nil, s.cacheCfg.KPITTL,
		func(ctx context.Context) ([]model.CategoryRevenue, error) {
			return s.store.RevenueByCategory(ctx)
		})
}

// RevenueByRegion returns revenue per customer region, highest first.
func (s *Service) RevenueByRegion(ctx context.Context) ([]model.RegionRevenue, error) {
	return cache.Memoize(ctx, s.cache, cachePrefix, "revenue_by_region", nil, s.cacheCfg.KPITTL,
		func(ctx context.Context) ([]model.RegionRevenue, error) {
			return s.store.RevenueByRegion(ctx)
		})
}

// RevenueTrend returns the filtered daily revenue series.
func (s *Service) RevenueTrend(ctx context.Context, f store.RevenueFilter) ([]model.RevenuePoint, error) {
	params := map[string]any{
		"category":        f.Category,
		"region":          f.Region,
		"min_order_value": f.MinOrderValue,
	}
	return cache.Memoize(ctx, s.cache, cachePrefix, "revenue_trend", params, s.cacheCfg.KPITTL,
		func(ctx context.Context) ([]model.RevenuePoint, error) {
			return s.store.DailyRevenue(ctx, f)
		})
}
