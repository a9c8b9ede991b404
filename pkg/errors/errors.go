// Package errors provides structured error types for pangraph's CLI and
// HTTP surfaces.
//
// The core packages report failures with sentinel errors (see
// [github.com/matzehuels/pangraph/pkg/seqgraph]). At the boundary they are
// mapped to a machine-readable [Code] with [FromGraph], so the CLI can print
// a friendly message and the server can pick a status code.
//
// # Error Codes
//
//   - INVALID_*: input validation failures
//   - MALFORMED_GRAPH, GRAPH_INTEGRITY: graph structure problems
//   - NOT_FOUND: unknown node or resource
//   - SUPERSEDED: a newer request replaced this one
//   - INTERNAL_ERROR: anything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSource, "unknown genome %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidSource) {
//	    // Handle validation error
//	}
//
//	// Map a core error
//	err = errors.FromGraph(err)
package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/matzehuels/pangraph/pkg/newick"
	"github.com/matzehuels/pangraph/pkg/pipeline"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidSource Code = "INVALID_SOURCE"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeInvalidTree   Code = "INVALID_TREE"

	// Graph structure errors
	ErrCodeMalformedGraph Code = "MALFORMED_GRAPH"
	ErrCodeGraphIntegrity Code = "GRAPH_INTEGRITY"

	ErrCodeNotFound   Code = "NOT_FOUND"
	ErrCodeSuperseded Code = "SUPERSEDED"
	ErrCodeCanceled   Code = "CANCELED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Detail is like UserMessage but appends the cause, if any.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return UserMessage(err)
}

// graphCodes maps core sentinels to codes, most specific first.
var graphCodes = []struct {
	sentinel error
	code     Code
	message  string
}{
	{seqgraph.ErrGraphIntegrity, ErrCodeGraphIntegrity, "graph transformation broke graph invariants"},
	{seqgraph.ErrMalformedGraph, ErrCodeMalformedGraph, "input graph is malformed"},
	{seqgraph.ErrCycle, ErrCodeInvalidGraph, "graph contains a cycle"},
	{seqgraph.ErrDuplicateID, ErrCodeInvalidGraph, "duplicate node id"},
	{seqgraph.ErrInvalidSpan, ErrCodeInvalidGraph, "invalid reference span"},
	{seqgraph.ErrEmptySources, ErrCodeInvalidGraph, "node without sources"},
	{seqgraph.ErrUnknownNode, ErrCodeNotFound, "unknown node"},
	{newick.ErrSyntax, ErrCodeInvalidTree, "invalid Newick tree"},
	{pipeline.ErrSuperseded, ErrCodeSuperseded, "a newer request replaced this one"},
	{context.Canceled, ErrCodeCanceled, "operation canceled"},
	{context.DeadlineExceeded, ErrCodeCanceled, "operation timed out"},
	{fs.ErrNotExist, ErrCodeNotFound, "file not found"},
}

// FromGraph wraps a core error in an *Error with the matching code.
// Errors that already carry a code and nil are returned unchanged; unknown
// errors become INTERNAL_ERROR.
func FromGraph(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	for _, m := range graphCodes {
		if errors.Is(err, m.sentinel) {
			return Wrap(m.code, err, "%s", m.message)
		}
	}
	return Wrap(ErrCodeInternal, err, "internal error")
}
