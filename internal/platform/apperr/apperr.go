// Package apperr defines the stable error taxonomy shared by all domain
// services. Every ledger operation surfaces one of these kinds so handlers
// can map failures to HTTP statuses without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers.
type Kind int

const (
	// Validation marks malformed or missing caller input. Never retried.
	Validation Kind = iota + 1
	// NotFound marks a reference to a visit, note, patient, or user that
	// does not exist.
	NotFound
	// Conflict marks a concurrency or ownership violation (double claim,
	// editing another doctor's note, revaluing after consultation start).
	Conflict
	// Precondition marks an operation attempted out of allowed state order,
	// such as claiming a consultation before payment.
	Precondition
	// Storage marks a backing-store failure. Idempotent operations are safe
	// to retry; non-idempotent ones are not.
	Storage
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Precondition:
		return "precondition"
	case Storage:
		return "storage"
	}
	return "unknown"
}

// Error carries a kind plus a human-readable detail. It supports errors.Is
// against another *Error of the same kind and unwraps to an optional cause.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause, preserving the kind for classification.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the kind from an error chain, or 0 if none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the HTTP status code handlers should return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Precondition:
		return http.StatusPreconditionFailed
	case Storage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
