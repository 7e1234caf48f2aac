// Package report writes the generation artifacts that accompany an output
// workbook: a machine-readable metadata sidecar for backend integration
// and a Markdown run report the ops console renders.
package report

import (
	"encoding/json"
	"os"
	"time"

	"invoicegen/internal"
	"invoicegen/internal/errors"
)

// SheetOutcome is one sheet's result within a report.
type SheetOutcome struct {
	Name       string `json:"name"`
	Succeeded  bool   `json:"succeeded"`
	Tables     int    `json:"tables"`
	Rows       int    `json:"rows"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// ReplacementEntry is one applied text substitution, copied from the
// rendering session's replacement log.
type ReplacementEntry struct {
	Original string `json:"original"`
	New      string `json:"new"`
	Term     string `json:"term,omitempty"`
	Location string `json:"location"`
}

// Report is the full account of one generation run.
type Report struct {
	SessionID   string                 `json:"session_id"`
	Status      string                 `json:"status"`
	Identifier  string                 `json:"identifier"`
	Customer    string                 `json:"customer,omitempty"`
	OutputFile  string                 `json:"output_file"`
	DAFMode     bool                   `json:"daf_mode"`
	CustomMode  bool                   `json:"custom_mode"`
	GeneratedAt time.Time              `json:"generated_at"`
	DurationMS  int64                  `json:"duration_ms"`
	Error       string                 `json:"error_message,omitempty"`
	Sheets      []SheetOutcome         `json:"sheets"`
	Summary     map[string]ColumnStats `json:"summary,omitempty"`
	Replacements []ReplacementEntry    `json:"replacements,omitempty"`
}

// SidecarPath returns the metadata sidecar path for an output workbook.
func SidecarPath(outputPath string) string {
	return outputPath + ".meta.json"
}

// WriteSidecar writes the report as the workbook's JSON sidecar.
func WriteSidecar(outputPath string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding metadata sidecar")
	}
	path := SidecarPath(outputPath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing metadata sidecar %s", path)
	}
	internal.DefaultLogger.Info("Wrote metadata sidecar %s", path)
	return nil
}

// ReadSidecar loads a previously written sidecar; the ops console uses it
// to render run reports without touching the database.
func ReadSidecar(outputPath string) (Report, error) {
	var r Report
	data, err := os.ReadFile(SidecarPath(outputPath))
	if err != nil {
		return r, errors.Wrapf(err, "reading metadata sidecar for %s", outputPath)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, errors.Wrapf(err, "parsing metadata sidecar for %s", outputPath)
	}
	return r, nil
}
