// Package opc implements an in-memory model of an OOXML package: a zip
// container of named parts wired together by relationship collections and a
// content-type manifest.
package opc

import "fmt"

// CorruptPackageError indicates the input is not a readable OOXML package
// (not a zip container, or missing the root content-type manifest).
type CorruptPackageError struct {
	Path    string
	Message string
	Cause   error
}

func (e *CorruptPackageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corrupt package %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("corrupt package %s: %s", e.Path, e.Message)
}

func (e *CorruptPackageError) Unwrap() error {
	return e.Cause
}

// MissingPartError indicates a part referenced by name does not exist in the
// package.
type MissingPartError struct {
	PartName string
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("part not found: %s", e.PartName)
}

// UndeclaredPartTypeError indicates a part has no applicable content-type
// rule (neither an Override nor a Default for its extension). Readers treat
// such parts as corrupt, so serialization must refuse to proceed.
type UndeclaredPartTypeError struct {
	PartName string
}

func (e *UndeclaredPartTypeError) Error() string {
	return fmt.Sprintf("no content-type rule covers part: %s", e.PartName)
}
