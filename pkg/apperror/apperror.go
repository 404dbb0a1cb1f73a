// Package apperror defines the rejection taxonomy shared by all ledger
// mutations. Every failed operation maps to exactly one Kind; callers receive
// the kind plus a human-readable reason and no state is left behind.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a rejection.
type Kind int

const (
	// Unknown covers internal failures that do not map to a caller mistake.
	Unknown Kind = iota
	// Unauthorized means a role or access-grant check failed.
	Unauthorized
	// InvalidArgument means malformed, oversized, or empty input, or a
	// self-referential operation.
	InvalidArgument
	// NotFound means the record or grant does not exist or is inactive.
	NotFound
	// AlreadyExists means a duplicate registration or duplicate grant.
	AlreadyExists
	// Paused means the system is in maintenance mode and rejects writes.
	Paused
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Error is a classified rejection. All rejections are synchronous and final;
// the core never retries on the caller's behalf.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error with a formatted message.
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from an error chain, or Unknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a rejection kind to its HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthorized:
		return http.StatusForbidden
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists:
		return http.StatusConflict
	case Paused:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
