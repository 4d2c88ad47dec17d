package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DatasetLabels is the small label-configuration artifact consumed by
// filter-option listings. It records how the source file named its category
// and region columns.
type DatasetLabels struct {
	CategoryLabel string `json:"category_label"`
	RegionLabel   string `json:"region_label"`
}

// WriteLabels persists the display labels inferred by the mapper. Failure to
// write the artifact must not fail the upload; callers log and continue.
func WriteLabels(path string, labels DatasetLabels) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create labels directory: %w", err)
		}
	}

	data, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}
	return nil
}

// ReadLabels loads the label artifact, returning defaults when it does not
// exist.
func ReadLabels(path string) (DatasetLabels, error) {
	labels := DatasetLabels{CategoryLabel: "Category", RegionLabel: "Region"}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return labels, nil
	}
	if err != nil {
		return labels, fmt.Errorf("read labels: %w", err)
	}
	if err := json.Unmarshal(data, &labels); err != nil {
		return labels, fmt.Errorf("unmarshal labels: %w", err)
	}
	return labels, nil
}
