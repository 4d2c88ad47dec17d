package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// previewRows caps how many data rows the profile echoes back.
const previewRows = 100

// ColumnProfile describes one column of an analyzed dataset.
type ColumnProfile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Missing int    `json:"missing"`
}

// Profile is a dry-run inspection of an uploaded file: structure, inferred
// types and data-quality findings, without touching the database.
type Profile struct {
	Rows            int             `json:"rows"`
	ColumnCount     int             `json:"column_count"`
	Columns         []ColumnProfile `json:"columns"`
	DuplicateRows   int             `json:"duplicate_rows"`
	Preview         [][]string      `json:"preview"`
	PreviewHeaders  []string        `json:"preview_headers"`
	Recommendations []string        `json:"recommendations"`
	IsClean         bool            `json:"is_clean"`
	HasSalesData    bool            `json:"has_sales_data"`
}

// Analyze profiles an uploaded file without persisting anything.
func (s *Service) Analyze(content []byte, filename string) (*Profile, error) {
	ds, err := ParseFile(content, filename)
	if err != nil {
		return nil, err
	}
	return ProfileDataset(ds), nil
}

// ProfileDataset computes structure and quality findings for a parsed
// dataset.
func ProfileDataset(ds *Dataset) *Profile {
	p := &Profile{
		Rows:           len(ds.Rows),
		ColumnCount:    len(ds.Headers),
		Columns:        make([]ColumnProfile, len(ds.Headers)),
		PreviewHeaders: ds.Headers,
		HasSalesData:   MapColumns(ds.Headers).HasSalesData(),
	}

	for col, header := range ds.Headers {
		profile := ColumnProfile{Name: header}

		var values []string
		for _, row := range ds.Rows {
			cell := ""
			if col < len(row) {
				cell = strings.TrimSpace(row[col])
			}
			if cell == "" {
				profile.Missing++
				continue
			}
			values = append(values, cell)
		}
		profile.Type = inferType(values)

		p.Columns[col] = profile
	}

	seen := make(map[string]struct{}, len(ds.Rows))
	for _, row := range ds.Rows {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			p.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}
	}

	limit := len(ds.Rows)
	if limit > previewRows {
		limit = previewRows
	}
	p.Preview = ds.Rows[:limit]

	for _, col := range p.Columns {
		if col.Missing > 0 {
			p.Recommendations = append(p.Recommendations,
				fmt.Sprintf("Column %q has %d missing values; they will be imputed on import", col.Name, col.Missing))
		}
	}
	if p.DuplicateRows > 0 {
		p.Recommendations = append(p.Recommendations,
			fmt.Sprintf("%d exact duplicate rows will be removed on import", p.DuplicateRows))
	}
	if !p.HasSalesData {
		p.Recommendations = append(p.Recommendations,
			"No revenue column recognized; the file will not be imported as sales data")
	}

	p.IsClean = len(p.Recommendations) == 0
	return p
}

// inferType classifies a column from its non-missing values: int64 when every
// value is integral, float64 when every value is numeric, object otherwise.
func inferType(values []string) string {
	if len(values) == 0 {
		return "object"
	}

	allInt := true
	for _, v := range values {
		d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
		if err != nil {
			return "object"
		}
		if !d.IsInteger() {
			allInt = false
		}
	}
	if allInt {
		return "int64"
	}
	return "float64"
}
