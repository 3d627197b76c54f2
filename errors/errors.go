// Package errors defines the failure taxonomy shared across the scheduler:
// authorization refusals, local edit validation, collaborator failures, and
// malformed stored data. Parsing of shift notation is deliberately absent
// from this taxonomy because the notation engine never fails.
package errors

import "fmt"

// Sentinel errors for classification with errors.Is.
var (
	ErrUnauthorized  = fmt.Errorf("admin capability required")
	ErrInvalidRange  = fmt.Errorf("invalid shift range")
	ErrMissingTime   = fmt.Errorf("%w: both start and end times are required", ErrInvalidRange)
	ErrZeroLength    = fmt.Errorf("%w: start and end times cannot be the same", ErrInvalidRange)
	ErrNoActiveEdit  = fmt.Errorf("no cell is being edited")
	ErrEditInFlight  = fmt.Errorf("another edit is still saving")
	ErrNotFound      = fmt.Errorf("not found")
	ErrUnknownColumn = fmt.Errorf("unknown day column")
	ErrUnknownDay    = fmt.Errorf("unknown day of week")
	ErrTerminalState = fmt.Errorf("time-off request already resolved")
)

// EditError wraps a shift edit failure with the cell it targeted.
type EditError struct {
	EmployeeID int64
	ColumnKey  string
	Err        error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit employee %d column %s: %v", e.EmployeeID, e.ColumnKey, e.Err)
}

func (e *EditError) Unwrap() error {
	return e.Err
}

// CollaboratorError wraps a failure from the persistence boundary.
// Callers treat it like a validation failure: roll back and surface.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
