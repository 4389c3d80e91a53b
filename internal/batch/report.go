package batch

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Report summarizes one batch run.
type Report struct {
	Template      string       `json:"template"`
	Processed     int          `json:"processed"`
	Branded       int          `json:"branded"`
	Degraded      int          `json:"degraded"`
	PassedThrough int          `json:"passed_through"`
	Failed        int          `json:"failed"`
	Skipped       int          `json:"skipped"`
	Files         []FileResult `json:"files"`
}

func (r *Report) tally() {
	r.Processed = len(r.Files)
	for _, f := range r.Files {
		switch f.Status {
		case StatusBranded:
			r.Branded++
		case StatusDegraded:
			r.Degraded++
		case StatusPassedThrough:
			r.PassedThrough++
		case StatusFailed:
			r.Failed++
		case StatusSkipped:
			r.Skipped++
		}
	}
}

// Write serializes the report as indented JSON at path.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
