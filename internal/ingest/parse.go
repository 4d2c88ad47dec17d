package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Dataset is a parsed tabular file: one header row plus data rows, each
// padded or truncated to the header width.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// ParseFile parses an uploaded file into a Dataset. CSV content is decoded
// through the encoding fallback chain; .xlsx files are read with excelize.
func ParseFile(content []byte, filename string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return parseXLSX(content)
	case ".csv", ".txt", "":
		text, _, err := DecodeText(content)
		if err != nil {
			return nil, err
		}
		return parseCSV(text)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

func parseCSV(text string) (*Dataset, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, record)
	}

	return datasetFromRecords(records)
}

func parseXLSX(content []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}

	return datasetFromRecords(records)
}

func datasetFromRecords(records [][]string) (*Dataset, error) {
	// The header is the first row with any non-blank cell.
	headerIdx := -1
	for i, record := range records {
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("file contains no data")
	}

	headers := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-headerIdx-1)
	for _, record := range records[headerIdx+1:] {
		row := make([]string, len(headers))
		for i := range headers {
			if i < len(record) {
				row[i] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return &Dataset{Headers: headers, Rows: rows}, nil
}
