package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"bizpulse/internal/model"
	"bizpulse/internal/store"
)

// OrderStore is the slice of the store the writer needs.
type OrderStore interface {
	InsertOrders(ctx context.Context, q store.Querier, orders []model.Order) ([]int64, error)
	InsertOrderItems(ctx context.Context, q store.Querier, items []model.OrderItem) error
}

// WriteResult reports what pass 2 persisted.
type WriteResult struct {
	Processed int
	Skipped   int
}

// Writer converts resolved rows into orders and order items, persisting them
// in bounded-size batches inside the upload transaction. One source row
// yields exactly one order with one item; the order total always equals
// quantity times the item's price snapshot.
type Writer struct {
	store     OrderStore
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a writer. A non-positive batch size falls back to 2000.
func NewWriter(st OrderStore, batchSize int, logger *slog.Logger) *Writer {
	if batchSize <= 0 {
		batchSize = 2000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		store:     st,
		batchSize: batchSize,
		logger:    logger.With(slog.String("component", "writer")),
	}
}

type pendingItem struct {
	productID int64
	quantity  int
	price     float64
}

// Write runs pass 2. Rows whose customer or product did not resolve to an id
// are skipped and counted, never reported individually.
func (w *Writer) Write(ctx context.Context, q store.Querier, rows []Row, lookups *Lookups) (WriteResult, error) {
	var result WriteResult

	orders := make([]model.Order, 0, w.batchSize)
	items := make([]pendingItem, 0, w.batchSize)

	flush := func() error {
		if len(orders) == 0 {
			return nil
		}
		ids, err := w.store.InsertOrders(ctx, q, orders)
		if err != nil {
			return fmt.Errorf("flush orders: %w", err)
		}

		orderItems := make([]model.OrderItem, len(items))
		for i, item := range items {
			orderItems[i] = model.OrderItem{
				OrderID:         ids[i],
				ProductID:       item.productID,
				Quantity:        item.quantity,
				PriceAtPurchase: item.price,
			}
		}
		if err := w.store.InsertOrderItems(ctx, q, orderItems); err != nil {
			return fmt.Errorf("flush order items: %w", err)
		}

		orders = orders[:0]
		items = items[:0]
		return nil
	}

	for _, row := range rows {
		customerID, okCustomer := lookups.Customers[DeriveEmail(row.CustomerName)]
		productID, okProduct := lookups.Products[row.ProductName]
		if !okCustomer || !okProduct {
			result.Skipped++
			continue
		}

		orders = append(orders, model.Order{
			CustomerID:  customerID,
			TotalAmount: row.Revenue,
			Status:      "completed",
			CreatedAt:   row.Date,
		})
		items = append(items, pendingItem{
			productID: productID,
			quantity:  row.Quantity,
			price:     unitPrice(row.Revenue, row.Quantity),
		})
		result.Processed++

		if len(orders) >= w.batchSize {
			if err := flush(); err != nil {
				return WriteResult{}, err
			}
		}
	}

	if err := flush(); err != nil {
		return WriteResult{}, err
	}

	if result.Skipped > 0 {
		w.logger.WarnContext(ctx, "rows skipped due to unresolved entities",
			"skipped", result.Skipped,
			"processed", result.Processed,
		)
	}

	return result, nil
}
