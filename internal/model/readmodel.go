package model

import "time"

// OrderStamp is the minimal order projection the cohort calculator needs.
type OrderStamp struct {
	CustomerID int64
	CreatedAt  time.Time
}

// OrderProduct is one order-item row joined to its product, the unit the
// affinity calculator pairs up.
type OrderProduct struct {
	OrderID     int64
	ProductID   int64
	ProductName string
}

// RevenuePoint is one day of summed revenue, ordered by date.
type RevenuePoint struct {
	Date       time.Time `json:"-"`
	DateStr    string    `json:"date"`
	Revenue    float64   `json:"revenue"`
	IsForecast bool      `json:"is_forecast"`
}

// CategoryRevenue is revenue attributed to a product category.
type CategoryRevenue struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

// RegionRevenue is revenue attributed to a customer region.
type RegionRevenue struct {
	Region  string  `json:"region"`
	Revenue float64 `json:"revenue"`
}

// ChannelStats aggregates the orders attributed to a marketing channel.
type ChannelStats struct {
	Revenue         float64
	Conversions     int64
	UniqueCustomers int64
}
