package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bizpulse/internal/model"
)

// RevenueFilter narrows revenue queries. Zero values mean no filter.
type RevenueFilter struct {
	Category      string
	Region        string
	MinOrderValue float64
}

// OrderStamps returns every order's customer id and creation time, the input
// of the cohort calculator.
func (s *Store) OrderStamps(ctx context.Context) ([]model.OrderStamp, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT customer_id, created_at FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("query order stamps: %w", err)
	}
	defer rows.Close()

	var stamps []model.OrderStamp
	for rows.Next() {
		var st model.OrderStamp
		if err := rows.Scan(&st.CustomerID, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order stamp: %w", err)
		}
		stamps = append(stamps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return stamps, nil
}

// OrderProducts returns every order-item row joined to its product name,
// ordered by order id, the input of the affinity calculator.
func (s *Store) OrderProducts(ctx context.Context) ([]model.OrderProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.product_id, p.name
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		ORDER BY oi.order_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query order products: %w", err)
	}
	defer rows.Close()

	var items []model.OrderProduct
	for rows.Next() {
		var op model.OrderProduct
		if err := rows.Scan(&op.OrderID, &op.ProductID, &op.ProductName); err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		items = append(items, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return items, nil
}

// TotalOrders returns the number of persisted orders.
func (s *Store) TotalOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// TotalRevenue sums order totals, optionally bounded by creation time.
func (s *Store) TotalRevenue(ctx context.Context, from, to *time.Time) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(total_amount) FROM orders
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
	`, nullTime(from), nullTime(to)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total.Float64, nil
}

// OrderCount counts orders, optionally bounded by creation time.
func (s *Store) OrderCount(ctx context.Context, from, to *time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(id) FROM orders
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
	`, nullTime(from), nullTime(to)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// DailyRevenue returns the summed revenue per calendar day matching the
// filter, ordered by date ascending. This series feeds the forecaster.
func (s *Store) DailyRevenue(ctx context.Context, f RevenueFilter) ([]model.RevenuePoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(o.created_at) AS day, SUM(o.total_amount) AS revenue
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE ($1 = '' OR EXISTS (
			SELECT 1 FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = o.id AND p.category = $1))
		  AND ($2 = '' OR c.region = $2)
		  AND ($3 <= 0 OR o.total_amount >= $3)
		GROUP BY day
		ORDER BY day
	`, f.Category, f.Region, f.MinOrderValue)
	if err != nil {
		return nil, fmt.Errorf("query daily revenue: %w", err)
	}
	defer rows.Close()

	var points []model.RevenuePoint
	for rows.Next() {
		var p model.RevenuePoint
		if err := rows.Scan(&p.Date, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan revenue point: %w", err)
		}
		p.DateStr = p.Date.Format("2006-01-02")
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return points, nil
}

// RevenueByCategory sums item revenue (quantity x price at purchase) per
// product category, highest first.
func (s *Store) RevenueByCategory(ctx context.Context) ([]model.CategoryRevenue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.category, SUM(oi.quantity * oi.price_at_purchase) AS revenue
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		GROUP BY p.category
		ORDER BY revenue DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query revenue by category: %w", err)
	}
	defer rows.Close()

	var result []model.CategoryRevenue
	for rows.Next() {
		var cr model.CategoryRevenue
		if err := rows.Scan(&cr.Category, &cr.Revenue); err != nil {
			return nil, fmt.Errorf("scan category revenue: %w", err)
		}
		result = append(result, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return result, nil
}

// RevenueByRegion sums order totals per customer region, highest first.
func (s *Store) RevenueByRegion(ctx context.Context) ([]model.RegionRevenue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.region, SUM(o.total_amount) AS revenue
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		GROUP BY c.region
		ORDER BY revenue DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query revenue by region: %w", err)
	}
	defer rows.Close()

	var result []model.RegionRevenue
	for rows.Next() {
		var rr model.RegionRevenue
		if err := rows.Scan(&rr.Region, &rr.Revenue); err != nil {
			return nil, fmt.Errorf("scan region revenue: %w", err)
		}
		result = append(result, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return result, nil
}

// MarketingChannels lists every channel with its spend.
func (s *Store) MarketingChannels(ctx context.Context) ([]model.MarketingChannel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, spend, created_at FROM marketing_channels ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query marketing channels: %w", err)
	}
	defer rows.Close()

	var channels []model.MarketingChannel
	for rows.Next() {
		var ch model.MarketingChannel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Spend, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan marketing channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return channels, nil
}

// ChannelStats aggregates attributed revenue, conversions and unique
// customers for one channel.
func (s *Store) ChannelStats(ctx context.Context, channelID int64) (model.ChannelStats, error) {
	var stats model.ChannelStats
	var revenue sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(total_amount), COUNT(id), COUNT(DISTINCT customer_id)
		FROM orders
		WHERE marketing_channel_id = $1
	`, channelID).Scan(&revenue, &stats.Conversions, &stats.UniqueCustomers)
	if err != nil {
		return model.ChannelStats{}, fmt.Errorf("query channel stats: %w", err)
	}
	stats.Revenue = revenue.Float64
	return stats, nil
}
