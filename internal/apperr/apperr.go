// Package apperr defines the error kinds shared across the orchestration
// core, and the transports that translate them into HTTP statuses or chat
// replies.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the purpose of transport-level handling.
// These are the kinds named by the spec's error-handling design, not Go
// error types — callers switch on Kind, not on a concrete struct.
type Kind int

// Known error kinds.
const (
	Unknown Kind = iota
	Unauthorized
	NotFound
	InvalidArgument
	UnsupportedFormat
	BackendBusy
	BackendError
	ConversionFailed
	Timeout
	Cancelled
	IOError
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "Unauthorized"
	case NotFound:
		return "NotFound"
	case InvalidArgument:
		return "InvalidArgument"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case BackendBusy:
		return "BackendBusy"
	case BackendError:
		return "BackendError"
	case ConversionFailed:
		return "ConversionFailed"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	case IOError:
		return "IOError"
	}
	return "Unknown"
}

// Error is the error type every component in this module returns. Hint
// carries machine-readable extra context for clients (e.g. "no-credentials"
// on an Unauthorized with no bearer token at all).
type Error struct {
	Kind  Kind
	Hint  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind wrapping cause (cause may be nil).
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf builds an Error of the given kind from a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// WithHint attaches a hint to an Error and returns it, for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// KindOf extracts the Kind from err, defaulting to Unknown if err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// Is reports whether err is, or wraps, an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
