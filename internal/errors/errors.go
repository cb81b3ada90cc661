// Package errors defines the domain error taxonomy for the spool export
// pipeline and the RFC 7807 rendering used at the HTTP edge.
//
// The four domain errors are distinct, inspectable conditions: callers are
// expected to branch on them with errors.As and decide user-facing
// messaging themselves. None of them is ever swallowed into an empty
// result.
package errors

import (
	"fmt"
	"time"
)

// InvalidSelectionError reports a friendly table name that is not present
// in the closed table mapping. It is raised before any connection is
// opened.
type InvalidSelectionError struct {
	Selection string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("unknown table selection %q", e.Selection)
}

// InvalidRangeError reports a date range whose start falls after its end.
// It is raised before any I/O is performed.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// DataAccessError wraps a connectivity or query failure from the
// relational store. A fetch that fails mid-stream aborts whole: no
// partial table is ever returned alongside this error.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access failed during %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// SerializationError reports that an assembled table could not be encoded
// into an export buffer. The serializer never silently truncates.
type SerializationError struct {
	Format string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize table to %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// NewInvalidSelection creates an InvalidSelectionError for the given
// friendly name.
func NewInvalidSelection(selection string) *InvalidSelectionError {
	return &InvalidSelectionError{Selection: selection}
}

// NewInvalidRange creates an InvalidRangeError for the given bounds.
func NewInvalidRange(start, end time.Time) *InvalidRangeError {
	return &InvalidRangeError{Start: start, End: end}
}

// NewDataAccess wraps err as a DataAccessError for the named operation.
func NewDataAccess(op string, err error) *DataAccessError {
	return &DataAccessError{Op: op, Err: err}
}

// NewSerialization wraps err as a SerializationError for the named format.
func NewSerialization(format string, err error) *SerializationError {
	return &SerializationError{Format: format, Err: err}
}
