// Package apperr classifies errors so the HTTP boundary can map them to
// status codes without inspecting error text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary handling.
type Kind int

const (
	// KindUnknown is the zero value; treated as an internal failure.
	KindUnknown Kind = iota

	// KindInvalidArgument marks a rejected input (bad identifier, malformed
	// filter, unusable payload).
	KindInvalidArgument

	// KindNotFound marks a lookup that matched nothing.
	KindNotFound

	// KindAlreadyExists marks a write that would duplicate existing data.
	KindAlreadyExists

	// KindUpstream marks a failure talking to the graph database.
	KindUpstream
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s; %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error with the given message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf returns a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns a classified error wrapping err. Returns nil if err is nil.
func Wrap(kind Kind, msg string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown if err carries no kind.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
