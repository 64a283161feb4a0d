// Package json persists assessment reports as indented JSON files.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/movesec/auditor/internal/usecase/audit"
)

// Writer implements the audit.ReportWriter interface.
type Writer struct {
	now func() string
}

// NewWriter creates a new JSON writer with a timestamp supplier.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Write persists an assessment report to disk as a JSON file.
func (w *Writer) Write(ctx context.Context, artifact audit.ReportArtifact) (string, error) {
	outputDir := filepath.Join(artifact.OutputDir, sanitise(artifact.Report.PackageID))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(outputDir, fmt.Sprintf("assessment-%s.json", w.now()))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create json file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(artifact.Report); err != nil {
		return "", fmt.Errorf("failed to encode report to json: %w", err)
	}

	return filePath, nil
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	return filepath.Base(value)
}
