// Package tidalerr defines the error taxonomy shared by every prediction
// component. Every fallible operation returns one of these kinds wrapped in
// an *Error; NoData is deliberately not part of this taxonomy since it is a
// valid result (quality = 0), not a failure.
package tidalerr

import "fmt"

// Kind classifies a failure so callers can branch on cause without string
// matching.
type Kind int

const (
	// OutOfMemory covers any allocation failure; fatal for the triggering operation.
	OutOfMemory Kind = iota
	// GridIoError covers a grid source read failure; fatal for the in-flight query.
	GridIoError
	// InvalidConfig covers an unknown key, missing key, or unparseable value; fatal at construction.
	InvalidConfig
	// SchemaMismatch covers a subsequently loaded grid disagreeing with the first on metadata.
	SchemaMismatch
	// UnknownConstituent covers a name that cannot be parsed.
	UnknownConstituent
	// InvalidArgument covers a non-positive buffer size, out-of-range latitude, or NaN time.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case OutOfMemory:
		return "OutOfMemory"
	case GridIoError:
		return "GridIoError"
	case InvalidConfig:
		return "InvalidConfig"
	case SchemaMismatch:
		return "SchemaMismatch"
	case UnknownConstituent:
		return "UnknownConstituent"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this module. The most recent
// instance can be retained by a caller for inspection, but nothing in this
// package stores error state globally or per-handle.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a lower-level cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind == kind
	}
	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
