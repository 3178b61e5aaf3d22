// Package report assembles the immutable scan output value and renders it
// for downstream consumers. Renderers only ever read the report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// Build assembles the output value from a completed (possibly partial)
// record list.
func Build(records []models.HostRecord, start, end time.Time) *models.ScanReport {
	return &models.ScanReport{
		Results:  records,
		Summary:  models.SummarizeByNetwork(records),
		Metadata: models.ScanMetadata{
			StartTime: start,
			EndTime:   end,
			Duration:  end.Sub(start),
		},
	}
}

// WriteJSON renders the report as indented JSON at path. The write goes
// through a temp file and rename so a failed run never leaves a truncated
// report behind.
func WriteJSON(r *models.ScanReport, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return writeAtomic(path, data)
}

// LoadBaseline reads a previously written JSON report back in, typically
// as the comparison point for change detection.
func LoadBaseline(path string) (*models.ScanReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline %s: %w", path, err)
	}

	var r models.ScanReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode baseline %s: %w", path, err)
	}
	return &r, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename report into place: %w", err)
	}
	return nil
}
