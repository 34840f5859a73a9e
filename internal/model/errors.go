package model

import "fmt"

// ParseError records a member-table field that could not be parsed.
// It degrades the affected value to "undetermined" and never aborts a run.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reason codes for unavailable scores.
const (
	ReasonDOBMissing     = "dob_missing"
	ReasonDOBUnparseable = "dob_unparseable"
	ReasonNegativeAge    = "negative_age"

	// ReasonDiagnosisUnparseable marks a scored record whose diagnosis list
	// could not be read; only the demographic coefficient applies.
	ReasonDiagnosisUnparseable = "diagnosis_unparseable"
)

// CategoryError means a patient could not be classified into a valid bucket.
type CategoryError struct {
	Reason string
	Detail string
}

func (e *CategoryError) Error() string {
	if e.Detail == "" {
		return "classify: " + e.Reason
	}
	return fmt.Sprintf("classify: %s: %s", e.Reason, e.Detail)
}

// SchemaError means an input table is missing structure the engine requires.
// It is fatal for the whole run.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s schema: %s", e.Table, e.Reason)
}
