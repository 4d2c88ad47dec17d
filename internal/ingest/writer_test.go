package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/model"
	"bizpulse/internal/store"
)

type fakeOrderStore struct {
	nextID  int64
	orders  []model.Order
	items   []model.OrderItem
	batches []int
}

func (f *fakeOrderStore) InsertOrders(_ context.Context, _ store.Querier, orders []model.Order) ([]int64, error) {
	f.batches = append(f.batches, len(orders))
	ids := make([]int64, len(orders))
	for i, o := range orders {
		f.nextID++
		ids[i] = f.nextID
		f.orders = append(f.orders, o)
	}
	return ids, nil
}

func (f *fakeOrderStore) InsertOrderItems(_ context.Context, _ store.Querier, items []model.OrderItem) error {
	f.items = append(f.items, items...)
	return nil
}

func sampleLookups() *Lookups {
	return &Lookups{
		Customers: map[string]int64{
			"john.doe@example.com":   1,
			"jane.smith@example.com": 2,
		},
		Products: map[string]int64{
			"Widget": 10,
			"Gadget": 11,
		},
	}
}

func TestWriteCreatesOrdersAndItems(t *testing.T) {
	st := &fakeOrderStore{}
	w := NewWriter(st, 2000, nil)

	result, err := w.Write(context.Background(), nil, sampleRows(), sampleLookups())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Zero(t, result.Skipped)
	require.Len(t, st.orders, 3)
	require.Len(t, st.items, 3)

	assert.Equal(t, int64(1), st.orders[0].CustomerID)
	assert.Equal(t, 100.0, st.orders[0].TotalAmount)
	assert.Equal(t, "completed", st.orders[0].Status)

	assert.Equal(t, int64(10), st.items[0].ProductID)
	assert.Equal(t, 2, st.items[0].Quantity)
	assert.Equal(t, 50.0, st.items[0].PriceAtPurchase, "price snapshot is revenue/quantity of its own row")

	// Third row is the same product at a different price point; the snapshot
	// follows the row, not the catalog.
	assert.Equal(t, 300.0, st.items[2].PriceAtPurchase)
}

func TestWriteItemsPairWithOrderIDs(t *testing.T) {
	st := &fakeOrderStore{nextID: 100}
	w := NewWriter(st, 2000, nil)

	_, err := w.Write(context.Background(), nil, sampleRows(), sampleLookups())
	require.NoError(t, err)

	require.Len(t, st.items, 3)
	assert.Equal(t, int64(101), st.items[0].OrderID)
	assert.Equal(t, int64(102), st.items[1].OrderID)
	assert.Equal(t, int64(103), st.items[2].OrderID)
}

func TestWriteFlushesInBatches(t *testing.T) {
	rows := make([]Row, 5)
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = Row{CustomerName: "John Doe", ProductName: "Widget", Revenue: 10, Quantity: 1, Date: date}
	}

	st := &fakeOrderStore{}
	w := NewWriter(st, 2, nil)

	result, err := w.Write(context.Background(), nil, rows, sampleLookups())
	require.NoError(t, err)

	assert.Equal(t, 5, result.Processed)
	assert.Equal(t, []int{2, 2, 1}, st.batches)
	assert.Len(t, st.items, 5)
}

func TestWriteSkipsUnresolvedRows(t *testing.T) {
	rows := sampleRows()
	rows = append(rows, Row{CustomerName: "Ghost", ProductName: "Widget", Revenue: 10, Quantity: 1})
	rows = append(rows, Row{CustomerName: "John Doe", ProductName: "Phantom", Revenue: 10, Quantity: 1})

	st := &fakeOrderStore{}
	w := NewWriter(st, 2000, nil)

	result, err := w.Write(context.Background(), nil, rows, sampleLookups())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, st.orders, 3)
}

func TestWriteZeroQuantityPrice(t *testing.T) {
	rows := []Row{{CustomerName: "John Doe", ProductName: "Widget", Revenue: 100, Quantity: 0}}

	st := &fakeOrderStore{}
	w := NewWriter(st, 2000, nil)

	_, err := w.Write(context.Background(), nil, rows, sampleLookups())
	require.NoError(t, err)

	require.Len(t, st.items, 1)
	assert.Equal(t, 0.0, st.items[0].PriceAtPurchase)
	assert.Equal(t, 100.0, st.orders[0].TotalAmount, "order total still carries the row revenue")
}
