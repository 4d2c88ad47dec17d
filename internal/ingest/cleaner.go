package ingest

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentinel values applied when a field cannot be imputed statistically.
// Category and region defaults are an explicit design choice, not a guess
// derived from the data.
const (
	UnknownCustomer = "Unknown Customer"
	GeneralItem     = "General Item"
	GeneralCategory = "General"
	DefaultRegion   = "North America"
)

// dateLayouts is the ordered list of accepted date formats; the first layout
// that parses wins. Rows with unparseable dates fall back to ingestion time.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
}

// Row is one cleaned source row, ready for entity resolution.
type Row struct {
	CustomerName string
	ProductName  string
	Revenue      float64
	Quantity     int
	Date         time.Time
	Category     string
	Region       string
}

// CleanStats summarizes what the cleaner changed.
type CleanStats struct {
	DuplicatesRemoved int `json:"duplicates_removed"`
	EmptyRowsDropped  int `json:"empty_rows_dropped"`
	RevenueImputed    int `json:"revenue_imputed"`
	QuantityImputed   int `json:"quantity_imputed"`
}

// Cleaner normalizes raw rows into cleaned records: exact duplicates
// dropped, currency and number formats normalized, missing values imputed
// per field, dates parsed with a fixed fallback chain.
type Cleaner struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewCleaner creates a cleaner. The clock is injectable for tests.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger, now: time.Now}
}

// Clean runs the full cleaning sequence over the dataset using the column
// mapping and returns the cleaned rows together with statistics.
func (c *Cleaner) Clean(ds *Dataset, m *Mapping) ([]Row, CleanStats) {
	var stats CleanStats

	rows := dedupeRows(ds.Rows, &stats)

	kept := rows[:0]
	for _, row := range rows {
		if rowIsEmpty(row) {
			stats.EmptyRowsDropped++
			continue
		}
		kept = append(kept, row)
	}
	rows = kept

	// First pass: numeric normalization. Invalid values become missing and
	// are imputed from the column statistics below.
	revenues := make([]float64, len(rows))
	revenueMissing := make([]bool, len(rows))
	quantities := make([]int, len(rows))
	quantityMissing := make([]bool, len(rows))

	var observedRevenues []float64
	var observedQuantities []int

	for i, row := range rows {
		if rev, ok := parseMoney(m.Cell(row, FieldRevenue)); ok {
			revenues[i] = rev
			observedRevenues = append(observedRevenues, rev)
		} else {
			revenueMissing[i] = true
		}
		if qty, ok := parseQuantity(m.Cell(row, FieldQuantity)); ok {
			quantities[i] = qty
			observedQuantities = append(observedQuantities, qty)
		} else {
			quantityMissing[i] = true
		}
	}

	medianRevenue := median(observedRevenues) // 0 when the column is entirely missing
	modeQuantity := mode(observedQuantities)  // 1 when no mode exists

	titler := cases.Title(language.English)
	ingestedAt := c.now()

	cleaned := make([]Row, 0, len(rows))
	for i, row := range rows {
		r := Row{
			Revenue:  revenues[i],
			Quantity: quantities[i],
		}
		if revenueMissing[i] {
			r.Revenue = medianRevenue
			stats.RevenueImputed++
		}
		if quantityMissing[i] {
			r.Quantity = modeQuantity
			stats.QuantityImputed++
		}

		if name := m.Cell(row, FieldCustomer); name != "" {
			r.CustomerName = titler.String(name)
		} else {
			r.CustomerName = UnknownCustomer
		}
		if product := m.Cell(row, FieldProduct); product != "" {
			r.ProductName = product
		} else {
			r.ProductName = GeneralItem
		}
		if category := m.Cell(row, FieldCategory); category != "" {
			r.Category = titler.String(category)
		} else {
			r.Category = GeneralCategory
		}
		if region := m.Cell(row, FieldRegion); region != "" {
			r.Region = titler.String(region)
		} else {
			r.Region = DefaultRegion
		}

		r.Date = parseDate(m.Cell(row, FieldDate), ingestedAt)

		cleaned = append(cleaned, r)
	}

	if stats.DuplicatesRemoved > 0 || stats.RevenueImputed > 0 || stats.QuantityImputed > 0 {
		c.logger.Debug("cleaning adjusted input rows",
			"duplicates_removed", stats.DuplicatesRemoved,
			"revenue_imputed", stats.RevenueImputed,
			"quantity_imputed", stats.QuantityImputed,
		)
	}

	return cleaned, stats
}

// dedupeRows removes exact duplicate rows, keeping first occurrences.
func dedupeRows(rows [][]string, stats *CleanStats) [][]string {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			stats.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseMoney normalizes a currency value: symbols and thousands separators
// stripped, then parsed through decimal for exact text-to-number handling.
func parseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(numberNormalizer.Replace(s))
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// numberNormalizer strips currency symbols and separators before parsing.
var numberNormalizer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// parseQuantity accepts integers and decimal strings, truncating the
// fractional part the way the numeric coercion treats "2.0" as 2.
func parseQuantity(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(numberNormalizer.Replace(s))
	if err != nil {
		return 0, false
	}
	return int(d.IntPart()), true
}

func parseDate(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

// median returns the statistical median, or 0 for an empty sample.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// mode returns the most frequent value, the smallest one on ties, or 1 for
// an empty sample.
func mode(values []int) int {
	if len(values) == 0 {
		return 1
	}
	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best, bestCount := 0, -1
	for v, count := range counts {
		if count > bestCount || (count == bestCount && v < best) {
			best, bestCount = v, count
		}
	}
	return best
}
