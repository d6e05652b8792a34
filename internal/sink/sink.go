// Package sink writes run results to disk.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"logocluster/pkg/domain"
)

const indent = "    "

// WriteClusters encodes clusters as an indented JSON array of domain arrays.
func WriteClusters(w io.Writer, clusters []domain.Cluster) error {
	if clusters == nil {
		clusters = []domain.Cluster{}
	}

	return encode(w, clusters)
}

// WriteReport encodes the full report, including per-domain outcomes.
func WriteReport(w io.Writer, report *domain.Report) error {
	return encode(w, reportJSON{Report: report, SuccessRate: report.SuccessRate()})
}

// reportJSON adds derived fields to the encoded report.
type reportJSON struct {
	*domain.Report
	SuccessRate float64 `json:"successRate"`
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode json: %w", err)
	}

	return nil
}

// WriteFile writes through write into path atomically: the content goes to a
// temporary file in the same directory that is renamed over path on success.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint: gosec
		return fmt.Errorf("could not chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not move results into %s: %w", path, err)
	}

	return nil
}
