// Package observability provides formatted output utilities for verbose CLI
// mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cybergen/docbrand/internal/batch"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
)

// Printer handles formatted output for verbose mode. Writes are serialized
// so boxes from concurrent workers never interleave.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintFileResult outputs a one-file composition summary: which strategy
// produced the output and any branding notes.
func (p *Printer) PrintFileResult(result batch.FileResult) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Input:    %s\n", result.Input))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", result.Status))
	if result.Strategy != "" {
		sb.WriteString(fmt.Sprintf("Strategy: %s\n", result.Strategy))
	}
	if result.Output != "" {
		sb.WriteString(fmt.Sprintf("Output:   %s\n", result.Output))
	}
	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", result.Error))
	}
	for _, note := range result.Notes {
		sb.WriteString(fmt.Sprintf("  - %s\n", note))
	}

	p.printBox("COMPOSITION", strings.TrimRight(sb.String(), "\n"))
}

// PrintReport outputs the batch summary.
func (p *Printer) PrintReport(report *batch.Report) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Processed:      %d\n", report.Processed))
	sb.WriteString(fmt.Sprintf("Branded:        %d\n", report.Branded))
	sb.WriteString(fmt.Sprintf("Degraded:       %d\n", report.Degraded))
	sb.WriteString(fmt.Sprintf("Passed through: %d\n", report.PassedThrough))
	sb.WriteString(fmt.Sprintf("Failed:         %d\n", report.Failed))
	sb.WriteString(fmt.Sprintf("Skipped:        %d", report.Skipped))

	p.printBox("BATCH SUMMARY", sb.String())
}
