package ingest

import "strings"

// Field is a canonical semantic column.
type Field string

// Canonical fields recognized by the mapper.
const (
	FieldCustomer Field = "customer"
	FieldProduct  Field = "product"
	FieldRevenue  Field = "revenue"
	FieldQuantity Field = "quantity"
	FieldDate     Field = "date"
	FieldCategory Field = "category"
	FieldRegion   Field = "region"
)

// fieldOrder fixes the evaluation order of the alias table. Earlier fields
// claim headers first.
var fieldOrder = []Field{
	FieldCustomer,
	FieldProduct,
	FieldRevenue,
	FieldQuantity,
	FieldDate,
	FieldCategory,
	FieldRegion,
}

// fieldAliases is the declarative header matching table. A header matches an
// alias by case-insensitive equality or substring containment; alias order
// decides when several headers could map to the same field.
var fieldAliases = map[Field][]string{
	FieldCustomer: {"customer name", "customer", "client", "user", "buyer", "name", "email"},
	FieldProduct:  {"product name", "product", "item", "sku", "description", "service", "title", "name"},
	FieldRevenue:  {"revenue", "total amount", "total", "amount", "sales", "price", "cost", "value", "current price"},
	FieldQuantity: {"quantity", "qty", "units", "count", "vol", "number of items"},
	FieldDate:     {"date", "order date", "timestamp", "created at", "time", "day"},
	FieldCategory: {"category", "type", "group", "department", "class", "cuisine", "cuisines", "food type", "sector"},
	FieldRegion:   {"region", "city", "location", "area", "country", "state", "zone", "territory"},
}

// Mapping is the result of header mapping: the column index and original
// header per matched field, plus display labels for category and region.
type Mapping struct {
	Columns map[Field]int
	Headers map[Field]string

	CategoryLabel string
	RegionLabel   string
}

// MapColumns maps raw headers to canonical fields. Inability to map anything
// is a normal outcome, not an error: the mapping is simply empty.
func MapColumns(headers []string) *Mapping {
	m := &Mapping{
		Columns:       make(map[Field]int),
		Headers:       make(map[Field]string),
		CategoryLabel: "Category",
		RegionLabel:   "Region",
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	claimed := make([]bool, len(headers))

	for _, field := range fieldOrder {
	aliasLoop:
		for _, alias := range fieldAliases[field] {
			for i, header := range normalized {
				if claimed[i] || header == "" {
					continue
				}
				if header == alias || strings.Contains(header, alias) {
					m.Columns[field] = i
					m.Headers[field] = strings.TrimSpace(headers[i])
					claimed[i] = true
					break aliasLoop
				}
			}
		}
	}

	if h, ok := m.Headers[FieldCategory]; ok {
		m.CategoryLabel = h
	}
	if h, ok := m.Headers[FieldRegion]; ok {
		m.RegionLabel = h
	}

	return m
}

// Has reports whether the field mapped to a column.
func (m *Mapping) Has(field Field) bool {
	_, ok := m.Columns[field]
	return ok
}

// Cell returns the trimmed value of the field's column in row, or "" when
// the field is unmapped.
func (m *Mapping) Cell(row []string, field Field) string {
	idx, ok := m.Columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// HasSalesData reports whether the batch is useful as sales data: revenue
// plus at least one of customer or product.
func (m *Mapping) HasSalesData() bool {
	return m.Has(FieldRevenue) && (m.Has(FieldCustomer) || m.Has(FieldProduct))
}
