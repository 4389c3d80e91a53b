// Package convert adapts an external document converter (PDF to an editable
// wordprocessing package) behind a small interface. Conversion quality is the
// converter's problem; the engine treats its output as an ordinary input
// package.
package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the maximum time to wait for one conversion.
	DefaultTimeout = 2 * time.Minute

	// InputPlaceholder and OutputPlaceholder mark where the source and
	// destination paths go in the configured argument list.
	InputPlaceholder  = "{input}"
	OutputPlaceholder = "{output}"
)

// Converter produces a best-effort editable document at dst from the source
// document at src, or reports failure.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// ConversionError wraps a converter invocation failure.
type ConversionError struct {
	Message string
	Output  string
	Cause   error
}

func (e *ConversionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conversion failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("conversion failed: %s", e.Message)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// CommandConverter shells out to a configured external converter binary.
// Occurrences of InputPlaceholder and OutputPlaceholder in Args are replaced
// per invocation.
type CommandConverter struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewCommandConverter parses a space-separated command line into a converter,
// e.g. "pdf2docx convert {input} {output}".
func NewCommandConverter(commandLine string) (*CommandConverter, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, &ConversionError{Message: "converter command is empty"}
	}
	return &CommandConverter{
		Command: fields[0],
		Args:    fields[1:],
		Timeout: DefaultTimeout,
	}, nil
}

// Convert runs the external converter and verifies it produced dst.
func (c *CommandConverter) Convert(ctx context.Context, src, dst string) error {
	if _, err := exec.LookPath(c.Command); err != nil {
		return &ConversionError{
			Message: fmt.Sprintf("converter %q not found in PATH", c.Command),
			Cause:   err,
		}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		a = strings.ReplaceAll(a, InputPlaceholder, src)
		a = strings.ReplaceAll(a, OutputPlaceholder, dst)
		args[i] = a
	}

	cmd := exec.CommandContext(ctx, c.Command, args...)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return &ConversionError{
			Message: fmt.Sprintf("%s exited with an error", c.Command),
			Output:  output.String(),
			Cause:   err,
		}
	}

	if _, err := os.Stat(dst); err != nil {
		return &ConversionError{
			Message: "converter reported success but produced no output",
			Output:  output.String(),
			Cause:   err,
		}
	}
	return nil
}
