package compose

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cybergen/docbrand/internal/opc"
)

// Strategy identifies which merge strategy produced an output.
type Strategy string

const (
	// StrategyPrimary rebuilds the target content inside a copy of the
	// template shell.
	StrategyPrimary Strategy = "primary"
	// StrategyFallback surgically merges template parts into the target
	// shell, leaving the target body untouched.
	StrategyFallback Strategy = "fallback"
	// StrategyPassThrough copies the original file unmodified so the batch
	// never silently loses a document.
	StrategyPassThrough Strategy = "passthrough"
)

// Result reports which strategy produced the final output and where it was
// written. Notes record reduced branding and strategy downgrades.
type Result struct {
	Strategy   Strategy `json:"strategy"`
	OutputPath string   `json:"output_path"`
	Notes      []string `json:"notes,omitempty"`
}

// Composer runs the layered composition strategy chain. It holds no mutable
// state; one Composer is safe to share across concurrent requests.
type Composer struct{}

// New returns a Composer.
func New() *Composer {
	return &Composer{}
}

// FallbackOutputPath tags an output path for a passthrough copy, so the
// artifact is never mistaken for a branded document.
func FallbackOutputPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + "_fallback" + ext
}

// Compose brands one document: PrimaryMerge, then FallbackMerge, then
// PassThrough. A strategy failure is caught here and escalates to the next
// strategy; only the exhaustion of all three propagates as an unrecoverable
// per-document failure. Exactly one output file is written.
func (c *Composer) Compose(ctx context.Context, inputPath, templatePath, outputPath string) (*Result, error) {
	var notes []string

	template, templateErr := opc.Open(templatePath)
	input, inputErr := opc.Open(inputPath)

	if templateErr == nil && inputErr == nil {
		shell, primaryNotes, err := primaryMerge(input, template)
		if err == nil {
			err = shell.Save(outputPath)
		}
		if err == nil {
			return &Result{
				Strategy:   StrategyPrimary,
				OutputPath: outputPath,
				Notes:      append(notes, primaryNotes...),
			}, nil
		}
		notes = append(notes, fmt.Sprintf("primary merge did not produce output: %v", err))

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		merged, fallbackNotes, err := fallbackMerge(input, template)
		if err == nil {
			err = merged.Save(outputPath)
		}
		if err == nil {
			return &Result{
				Strategy:   StrategyFallback,
				OutputPath: outputPath,
				Notes:      append(notes, fallbackNotes...),
			}, nil
		}
		notes = append(notes, fmt.Sprintf("fallback merge did not produce output: %v", err))
	} else {
		if templateErr != nil {
			notes = append(notes, fmt.Sprintf("template package unreadable: %v", templateErr))
		}
		if inputErr != nil {
			notes = append(notes, fmt.Sprintf("input package unreadable: %v", inputErr))
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	passThroughPath := FallbackOutputPath(outputPath)
	if err := copyFile(inputPath, passThroughPath); err != nil {
		return nil, fmt.Errorf("all composition strategies failed and passthrough copy failed: %w", err)
	}
	return &Result{
		Strategy:   StrategyPassThrough,
		OutputPath: passThroughPath,
		Notes:      notes,
	}, nil
}

// copyFile writes src's bytes to a temporary sibling of dst and renames it
// into place, matching the engine-wide rule that partial output is never
// promoted to a final path.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".docbrand-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary output: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close output: %w", err)
	}
	// CreateTemp opens the file 0600; widen it before promoting.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
