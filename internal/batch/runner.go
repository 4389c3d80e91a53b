// Package batch processes a directory of input documents against one
// template. Each file is an independent unit of work with its own temporary
// working directory; one file failing never aborts its siblings.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cybergen/docbrand/internal/compose"
	"github.com/cybergen/docbrand/internal/convert"
)

// Status classifies the outcome of one input file. Every input yields
// exactly one status; a silent zero-output drop is a bug.
type Status string

const (
	// StatusBranded means the primary merge produced the output.
	StatusBranded Status = "branded"
	// StatusDegraded means the fallback merge produced the output, possibly
	// with reduced branding.
	StatusDegraded Status = "degraded"
	// StatusPassedThrough means the original file was copied unmodified.
	StatusPassedThrough Status = "passed_through"
	// StatusFailed means no output could be produced at all.
	StatusFailed Status = "failed"
	// StatusSkipped means the file's format is not supported.
	StatusSkipped Status = "skipped"
)

// FileResult is the per-file record in a batch report.
type FileResult struct {
	RequestID string   `json:"request_id"`
	Input     string   `json:"input"`
	Output    string   `json:"output,omitempty"`
	Status    Status   `json:"status"`
	Strategy  string   `json:"strategy,omitempty"`
	Notes     []string `json:"notes,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ResultCallback is invoked as each file completes. Callbacks may run
// concurrently from worker goroutines.
type ResultCallback func(FileResult)

// Runner executes composition requests across a bounded worker pool.
type Runner struct {
	Composer  *compose.Composer
	Converter convert.Converter // optional; nil disables PDF inputs
	Workers   int
	OnResult  ResultCallback
}

// Run processes every file in inputDir against templatePath, writing outputs
// into outputDir. Files run in parallel with no shared mutable state; their
// relative completion order is unspecified. The returned report has one
// entry per input file, in directory order.
func (r *Runner) Run(ctx context.Context, inputDir, templatePath, outputDir string) (*Report, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]FileResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			result := r.processFile(gCtx, filepath.Join(inputDir, name), templatePath, outputDir)
			results[i] = result
			if r.OnResult != nil {
				r.OnResult(result)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Template: templatePath, Files: results}
	report.tally()
	return report, nil
}

// processFile brands one input document. Failure is recorded, not returned:
// per-document failure must not propagate into the worker pool.
func (r *Runner) processFile(ctx context.Context, inputPath, templatePath, outputDir string) FileResult {
	result := FileResult{
		RequestID: uuid.NewString(),
		Input:     inputPath,
	}

	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".docx":
		outputPath := filepath.Join(outputDir, filepath.Base(inputPath))
		return r.composeInto(ctx, result, inputPath, templatePath, outputPath)

	case ".pdf":
		if r.Converter == nil {
			result.Status = StatusFailed
			result.Error = "no converter configured for PDF inputs"
			return result
		}
		workDir, err := os.MkdirTemp("", "docbrand-"+result.RequestID)
		if err != nil {
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("failed to create working directory: %v", err)
			return result
		}
		defer os.RemoveAll(workDir)

		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		converted := filepath.Join(workDir, base+".docx")
		if err := r.Converter.Convert(ctx, inputPath, converted); err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return result
		}
		// Keep the source extension in the output stem so report.pdf and
		// report.docx in the same batch never write to the same path.
		outputPath := filepath.Join(outputDir, base+".pdf.docx")
		return r.composeInto(ctx, result, converted, templatePath, outputPath)

	default:
		result.Status = StatusSkipped
		result.Notes = []string{"unsupported file format"}
		return result
	}
}

func (r *Runner) composeInto(ctx context.Context, result FileResult, inputPath, templatePath, outputPath string) FileResult {
	composed, err := r.Composer.Compose(ctx, inputPath, templatePath, outputPath)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Output = composed.OutputPath
	result.Strategy = string(composed.Strategy)
	result.Notes = composed.Notes
	switch composed.Strategy {
	case compose.StrategyPrimary:
		result.Status = StatusBranded
	case compose.StrategyFallback:
		result.Status = StatusDegraded
	default:
		result.Status = StatusPassedThrough
	}
	return result
}
