package plan

import (
	"errors"
	"fmt"
)

// Sentinel errors for document mutations.
var (
	// ErrFixedEvent indicates an edit or delete targeted an imported, read-only event.
	ErrFixedEvent = errors.New("fixed event cannot be changed")
	// ErrEventNotFound indicates no event has the requested id.
	ErrEventNotFound = errors.New("event not found")
	// ErrTaskNotFound indicates no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyTitle indicates a task was created without a title.
	ErrEmptyTitle = errors.New("title is required")
	// ErrEmptyRole indicates a task was added without naming a role.
	ErrEmptyRole = errors.New("role is required")
	// ErrNotSchedulable indicates a block was requested for a task that is not pool or partial.
	ErrNotSchedulable = errors.New("task is not schedulable")
	// ErrInvalidRange indicates a block whose end is not after its start.
	ErrInvalidRange = errors.New("end must be after start")
)

// ParseError reports raw text that could not be turned into a Document.
type ParseError struct {
	Line int // 1-based line in the source text, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %v", e.Line, e.Err)
	}
	return "parse error: " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

// SyncError reports a failed or malformed external import.
type SyncError struct {
	Op     string // "run", "decode" or "merge"
	Stderr string
	Err    error
}

func (e *SyncError) Error() string {
	msg := "sync " + e.Op + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *SyncError) Unwrap() error { return e.Err }

// ValidationError reports user input rejected before any state changed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ValidationError) Unwrap() error { return e.Err }
