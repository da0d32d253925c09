// Package errs provides the unified error type used across all of dbferry.
//
// Every subsystem (source driver, target driver, schema, transfer, report
// store) wraps its native errors into *errs.Error before returning them to
// callers. Callers use the Is* predicates to decide whether a failure is
// fatal for the run, for one table, or for one batch, without importing
// driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "count rows", pgErr)
//
//	// In the engine, attach the location of the failure:
//	return errs.Wrap(errs.ErrKindTransfer, "insert batch", err).ForTable(t).AtOffset(off)
//
//	// In the orchestrator, check the error kind:
//	if errs.IsSchema(err) {
//	    // skip this table's data phase
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach or authenticate to a backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL or storage operation error
	ErrKindInvalidInput             // bad arguments or configuration from the caller
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindIntrospection            // source catalog empty or unreadable
	ErrKindSchema                   // DDL rejected by the target
	ErrKindTransfer                 // fetch or bulk insert failed mid-batch
	ErrKindFormat                   // value cannot be rendered as a literal
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindIntrospection:
		return "introspection"
	case ErrKindSchema:
		return "schema"
	case ErrKindTransfer:
		return "transfer"
	case ErrKindFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbferry subsystems.
type Error struct {
	Kind    ErrKind
	Message string

	// Table and Offset locate the failure for the operator. Offset is -1
	// when the failure is not tied to a batch.
	Table  string
	Offset int64

	Cause error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	loc := ""
	switch {
	case e.Table != "" && e.Offset >= 0:
		loc = fmt.Sprintf(" (table=%s offset=%d)", e.Table, e.Offset)
	case e.Table != "":
		loc = fmt.Sprintf(" (table=%s)", e.Table)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s%s: %v", e.Kind, e.Message, loc, e.Cause)
	}
	return fmt.Sprintf("[%s] %s%s", e.Kind, e.Message, loc)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ForTable records the table the error belongs to.
func (e *Error) ForTable(table string) *Error {
	e.Table = table
	return e
}

// AtOffset records the batch offset the error belongs to.
func (e *Error) AtOffset(offset int64) *Error {
	e.Offset = offset
	return e
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Offset: -1}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Offset: -1, Cause: cause}
}

// Errorf is New with a formatted message.
func Errorf(kind ErrKind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsIntrospection reports whether err means the source catalog could not be read.
func IsIntrospection(err error) bool {
	return KindOf(err) == ErrKindIntrospection
}

// IsSchema reports whether err is a DDL rejection by the target.
func IsSchema(err error) bool {
	return KindOf(err) == ErrKindSchema
}

// IsTransfer reports whether err is a failed batch fetch or insert.
func IsTransfer(err error) bool {
	return KindOf(err) == ErrKindTransfer
}

// IsFormat reports whether err is a value that could not be rendered as a literal.
func IsFormat(err error) bool {
	return KindOf(err) == ErrKindFormat
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
