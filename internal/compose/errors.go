// Package compose drives the composition of a branded document: template
// shell plus target content, merged through a layered strategy chain.
package compose

import "fmt"

// CompositionError indicates a merge strategy could not complete. It is
// caught at the orchestrator boundary and escalates to the next strategy,
// never aborting the batch.
type CompositionError struct {
	Strategy string
	Message  string
	Cause    error
}

func (e *CompositionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s merge failed: %s: %v", e.Strategy, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s merge failed: %s", e.Strategy, e.Message)
}

func (e *CompositionError) Unwrap() error {
	return e.Cause
}

// MissingTemplatePartError records that the template lacks an expected
// branding part. It is soft: the merge proceeds with reduced branding and
// the omission is surfaced in the result notes.
type MissingTemplatePartError struct {
	PartName string
}

func (e *MissingTemplatePartError) Error() string {
	return fmt.Sprintf("template has no %s part", e.PartName)
}
