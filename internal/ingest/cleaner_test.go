package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesDataset(rows [][]string) (*Dataset, *Mapping) {
	headers := []string{"Customer", "Product", "Revenue", "Quantity", "Date", "Category", "Region"}
	return &Dataset{Headers: headers, Rows: rows}, MapColumns(headers)
}

func TestCleanDeduplicatesExactRows(t *testing.T) {
	ds, m := salesDataset([][]string{
		{"John Doe", "Widget", "100", "2", "2024-01-05", "Tools", "East"},
		{"John Doe", "Widget", "100", "2", "2024-01-05", "Tools", "East"},
		{"Jane Smith", "Gadget", "50", "1", "2024-01-06", "Tools", "West"},
	})

	rows, stats := NewCleaner(nil).Clean(ds, m)

	assert.Len(t, rows, 2)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
}

func TestCleanDropsAllEmptyRows(t *testing.T) {
	ds, m := salesDataset([][]string{
		{"John Doe", "Widget", "100", "2", "2024-01-05", "Tools", "East"},
		{"", "", "", "", "", "", ""},
		{"  ", "", " ", "", "", "", ""},
	})

	rows, stats := NewCleaner(nil).Clean(ds, m)

	assert.Len(t, rows, 1)
	// The two blank rows differ in whitespace, so dedup keeps both and the
	// empty-row filter drops them.
	assert.Equal(t, 2, stats.EmptyRowsDropped)
}

func TestCleanImputesRevenueWithMedian(t *testing.T) {
	ds, m := salesDataset([][]string{
		{"A", "Widget", "100", "1", "2024-01-05", "", ""},
		{"B", "Widget", "", "1", "2024-01-05", "", ""},
		{"C", "Widget", "300", "1", "2024-01-05", "", ""},
	})

	rows, stats := NewCleaner(nil).Clean(ds, m)

	require.Len(t, rows, 3)
	assert.Equal(t, 200.0, rows[1].Revenue)
	assert.Equal(t, 1, stats.RevenueImputed)
}

func TestCleanImputesQuantityWithMode(t *testing.T) {
	tests := []struct {
		name       string
		quantities []string
		wantForGap int
	}{
		{"clear mode", []string{"2", "2", "5", ""}, 2},
		{"tie takes smallest", []string{"1", "1", "3", "3", ""}, 1},
		{"no observed values", []string{"", "", "", ""}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, len(tt.quantities))
			for i, q := range tt.quantities {
				rows[i] = []string{"A", "Widget", "10", q, "2024-01-05", "", ""}
			}
			ds, m := salesDataset(rows)

			cleaned, _ := NewCleaner(nil).Clean(ds, m)

			require.Len(t, cleaned, len(tt.quantities))
			assert.Equal(t, tt.wantForGap, cleaned[len(cleaned)-1].Quantity)
		})
	}
}

func TestCleanCurrencyNormalization(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"dollar sign", "$1,234.50", 1234.50},
		{"euro sign", "€99.99", 99.99},
		{"pound sign", "£10", 10},
		{"plain number", "42.5", 42.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, m := salesDataset([][]string{
				{"A", "Widget", tt.raw, "1", "2024-01-05", "", ""},
			})

			rows, stats := NewCleaner(nil).Clean(ds, m)

			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].Revenue)
			assert.Zero(t, stats.RevenueImputed)
		})
	}
}

func TestCleanSentinelDefaults(t *testing.T) {
	ds, m := salesDataset([][]string{
		{"", "", "100", "1", "2024-01-05", "", ""},
	})

	rows, _ := NewCleaner(nil).Clean(ds, m)

	require.Len(t, rows, 1)
	assert.Equal(t, UnknownCustomer, rows[0].CustomerName)
	assert.Equal(t, GeneralItem, rows[0].ProductName)
	assert.Equal(t, GeneralCategory, rows[0].Category)
	assert.Equal(t, DefaultRegion, rows[0].Region)
}

func TestCleanTitleCasesNames(t *testing.T) {
	ds, m := salesDataset([][]string{
		{"john doe", "widget pro", "100", "1", "2024-01-05", "electronics", "north america"},
	})

	rows, _ := NewCleaner(nil).Clean(ds, m)

	require.Len(t, rows, 1)
	assert.Equal(t, "John Doe", rows[0].CustomerName)
	assert.Equal(t, "widget pro", rows[0].ProductName, "product names pass through untouched")
	assert.Equal(t, "Electronics", rows[0].Category)
	assert.Equal(t, "North America", rows[0].Region)
}

func TestCleanDateParsing(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cleaner := NewCleaner(nil)
	cleaner.now = func() time.Time { return fixed }

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"iso date", "2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"day first dashes", "05-01-2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"iso datetime", "2024-01-05 13:30:00", time.Date(2024, 1, 5, 13, 30, 0, 0, time.UTC)},
		{"garbage falls back to ingestion time", "not a date", fixed},
		{"empty falls back to ingestion time", "", fixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, m := salesDataset([][]string{
				{"A", "Widget", "100", "1", tt.raw, "", ""},
			})

			rows, _ := cleaner.Clean(ds, m)

			require.Len(t, rows, 1)
			assert.True(t, tt.want.Equal(rows[0].Date), "got %v want %v", rows[0].Date, tt.want)
		})
	}
}

func TestCleanQuantityCoercion(t *testing.T) {
	ds, m := salesDataset([][]string{
		{"A", "Widget", "100", "2.0", "2024-01-05", "", ""},
		{"B", "Widget", "100", "3.7", "2024-01-05", "", ""},
	})

	rows, stats := NewCleaner(nil).Clean(ds, m)

	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.Equal(t, 3, rows[1].Quantity, "fractional part truncates")
	assert.Zero(t, stats.QuantityImputed)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 5.0, median([]float64{5}))
	assert.Equal(t, 200.0, median([]float64{300, 100, 200}))
	assert.Equal(t, 150.0, median([]float64{100, 200}))
}
