// Package model defines the normalized relational entities produced by the
// ingestion pipeline and read by the analytics calculators.
package model

import "time"

// Customer is identified by its derived email. Created at most once per
// ingestion batch; never mutated by ingestion afterwards.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is identified by its normalized name. Price and category are a
// snapshot taken from the first row that mentioned the product; later uploads
// of the same name do not update them.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Cost      float64   `json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is one source row: one order/shipment unit, never a logical basket.
type Order struct {
	ID                 int64     `json:"id"`
	CustomerID         int64     `json:"customer_id"`
	TotalAmount        float64   `json:"total_amount"`
	Status             string    `json:"status"`
	MarketingChannelID *int64    `json:"marketing_channel_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// OrderItem references one product with quantity and a price snapshot taken
// at write time, decoupled from the product's current price.
type OrderItem struct {
	ID              int64   `json:"id"`
	OrderID         int64   `json:"order_id"`
	ProductID       int64   `json:"product_id"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

// MarketingChannel carries acquisition spend for ROAS/CAC attribution.
type MarketingChannel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Spend     float64   `json:"spend"`
	CreatedAt time.Time `json:"created_at"`
}
