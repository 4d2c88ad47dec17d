package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		wantText     string
		wantEncoding string
	}{
		{"plain utf-8", []byte("héllo"), "héllo", "utf-8"},
		{"utf-8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...), "hello", "utf-8"},
		{"latin1 bytes", []byte{'c', 'a', 'f', 0xE9}, "café", "latin1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, encoding, err := DecodeText(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantEncoding, encoding)
		})
	}
}

func TestParseFileCSV(t *testing.T) {
	content := []byte("Customer,Revenue\nJohn,100\nJane,50\n")

	ds, err := ParseFile(content, "sales.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer", "Revenue"}, ds.Headers)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []string{"John", "100"}, ds.Rows[0])
}

func TestParseFileRaggedRows(t *testing.T) {
	content := []byte("A,B,C\n1,2\n1,2,3,4\n")

	ds, err := ParseFile(content, "data.csv")
	require.NoError(t, err)

	// Short rows pad, long rows truncate to the header width.
	assert.Equal(t, []string{"1", "2", ""}, ds.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, ds.Rows[1])
}

func TestParseFileSkipsLeadingBlankRows(t *testing.T) {
	content := []byte(",,\n,,\nCustomer,Revenue,\nJohn,100,\n")

	ds, err := ParseFile(content, "data.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer", "Revenue", ""}, ds.Headers)
	require.Len(t, ds.Rows, 1)
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	_, err := ParseFile([]byte("x"), "report.pdf")
	assert.ErrorContains(t, err, "unsupported file extension")
}

func TestParseFileEmpty(t *testing.T) {
	_, err := ParseFile([]byte(""), "empty.csv")
	assert.ErrorContains(t, err, "no data")
}

func TestProfileDataset(t *testing.T) {
	ds := &Dataset{
		Headers: []string{"Customer", "Revenue", "Quantity", "Notes"},
		Rows: [][]string{
			{"John", "100.5", "2", "a"},
			{"Jane", "", "3", "b"},
			{"John", "100.5", "2", "a"},
		},
	}
	// Row 3 duplicates row 1 exactly; its values still count toward column
	// stats because profiling inspects the raw rows.
	ds.Rows[2] = append([]string(nil), ds.Rows[0]...)

	p := ProfileDataset(ds)

	assert.Equal(t, 3, p.Rows)
	assert.Equal(t, 4, p.ColumnCount)
	assert.Equal(t, 1, p.DuplicateRows)
	assert.True(t, p.HasSalesData)
	assert.False(t, p.IsClean)

	require.Len(t, p.Columns, 4)
	assert.Equal(t, "object", p.Columns[0].Type)
	assert.Equal(t, "float64", p.Columns[1].Type)
	assert.Equal(t, 1, p.Columns[1].Missing)
	assert.Equal(t, "int64", p.Columns[2].Type)
}

func TestProfileDatasetClean(t *testing.T) {
	ds := &Dataset{
		Headers: []string{"Customer", "Revenue"},
		Rows: [][]string{
			{"John", "100"},
			{"Jane", "50"},
		},
	}

	p := ProfileDataset(ds)

	assert.True(t, p.IsClean)
	assert.Empty(t, p.Recommendations)
}

func TestLabelsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset_config.json")

	in := DatasetLabels{CategoryLabel: "Cuisine", RegionLabel: "City"}
	require.NoError(t, WriteLabels(path, in))

	out, err := ReadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadLabelsMissingFile(t *testing.T) {
	out, err := ReadLabels(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DatasetLabels{CategoryLabel: "Category", RegionLabel: "Region"}, out)
}
