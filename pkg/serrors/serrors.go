// Package serrors defines semantic error kinds shared across the pipeline.
// Stage failures for a single domain are reported with one of the per-domain
// kinds so the orchestrator can count and skip them, while ErrPrecondition marks
// wiring bugs that must stop the run.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind. It allows distinguishing semantic kinds from ordinary errors.
type Kind interface {
	error
	isKind()
}

// kind is an unexported implementation of Kind used as a sentinel value for a
// semantic error category.
type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind (a sentinel) with the provided
// name. Kinds are comparable and can be used with errors.Is/As through the
// serrors.Error wrapper.
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrBadRequest indicates invalid input, such as an unparsable URL or an
	// unreadable domain list.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewKind("INTERNAL")
	// ErrTimeout indicates a network call exceeded its deadline.
	ErrTimeout = NewKind("TIMEOUT")
	// ErrUnavailable indicates a transport failure: DNS, connection refused,
	// TLS handshake, reset.
	ErrUnavailable = NewKind("UNAVAILABLE")
	// ErrBadStatus indicates the remote answered with a non-2xx status.
	ErrBadStatus = NewKind("BAD_STATUS")
	// ErrMalformed indicates content that could not be parsed or decoded.
	ErrMalformed = NewKind("MALFORMED")
	// ErrUnsupported indicates a candidate that is rejected without a network
	// call (vector formats, scripts, animations, non-http schemes).
	ErrUnsupported = NewKind("UNSUPPORTED")
	// ErrNoCandidate indicates a page was fetched but no heuristic matched.
	ErrNoCandidate = NewKind("NO_CANDIDATE")
	// ErrPrecondition indicates a programming or wiring error, for example
	// clustering an empty universe or mixing fingerprint algorithms.
	ErrPrecondition = NewKind("PRECONDITION")
)

// KindOf returns the first semantic kind found in err's chain, or nil.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}

// Error represents a semantic error carrying a kind (sentinel), an optional
// wrapped error and an optional message. It fully supports errors.Is/errors.As
// and unwrapping.
//
// Matching semantics:
//   - errors.Is(err, target) matches either the kind sentinel or the wrapped error.
//   - errors.As(err, target) succeeds for either the kind sentinel or the wrapped error.
//
// Error string formatting:
//   - If both msg and err are set: "<msg>: <err>"
//   - If only msg is set: "<msg>"
//   - If only err is set: "<err>"
//   - If neither set: the kind's Error() string.
type Error struct {
	kind Kind  // semantic kind sentinel
	err  error // wrapped error (optional)
	msg  string
}

// With constructs a new semantic error with the given kind and a message.
// Use Wrap if you also want to wrap a concrete cause.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a new semantic error with the given kind, wraps the provided
// cause and adds a message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates a semantic error carrying only the kind.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.err }

// Is matches against either the kind sentinel or the wrapped error chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// As supports type assertions against either the kind sentinel or the wrapped
// error chain. The kind is tried first so KindOf reports the outermost kind.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}

	return e.err != nil && errors.As(e.err, target)
}

// Kind returns the semantic kind sentinel associated with this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }
