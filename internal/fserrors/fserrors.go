// Package fserrors defines the error taxonomy shared by every vpath backend.
//
// Callers use errors.Is against the sentinels below; backends wrap the
// underlying transport error with this package's constructors, which keep it
// as the cause so Cause can still return it for logging.
package fserrors

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Sentinel errors forming the taxonomy from spec.md §7.
var (
	// ErrNotFound means the path does not refer to an existing entity.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied means the OS or backend refused the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNetworkError means a transport timeout, connection loss, or
	// transient server error exhausted its retry budget.
	ErrNetworkError = errors.New("network error")
	// ErrCrossBackend means a rename was attempted across two schemes.
	ErrCrossBackend = errors.New("cannot rename across backends")
	// ErrReadOnly means a mutation was attempted against a read-only
	// backend (archive entries).
	ErrReadOnly = errors.New("read-only")
	// ErrCancelled means a task was cancelled mid-flight.
	ErrCancelled = errors.New("cancelled")
	// ErrInvalidArgument means a malformed path, pattern, or option was
	// supplied.
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFound wraps err with ErrNotFound, recording subject for logging.
func NotFound(subject string, err error) error {
	return wrap(ErrNotFound, subject, err)
}

// PermissionDenied wraps err with ErrPermissionDenied.
func PermissionDenied(subject string, err error) error {
	return wrap(ErrPermissionDenied, subject, err)
}

// NetworkError wraps err with ErrNetworkError.
func NetworkError(subject string, err error) error {
	return wrap(ErrNetworkError, subject, err)
}

// CrossBackend reports a CrossBackend error for a rename attempt.
func CrossBackend(subject string) error {
	return wrap(ErrCrossBackend, subject, nil)
}

// ReadOnly reports a ReadOnly error for a mutation attempt.
func ReadOnly(subject string) error {
	return wrap(ErrReadOnly, subject, nil)
}

// Cancelled reports a Cancelled error.
func Cancelled(subject string) error {
	return wrap(ErrCancelled, subject, nil)
}

// InvalidArgument wraps err with ErrInvalidArgument.
func InvalidArgument(subject string, err error) error {
	return wrap(ErrInvalidArgument, subject, err)
}

type taggedError struct {
	kind    error
	subject string
	cause   error
}

func wrap(kind error, subject string, cause error) error {
	return &taggedError{kind: kind, subject: subject, cause: cause}
}

func (e *taggedError) Error() string {
	if e.subject == "" {
		if e.cause != nil {
			return e.kind.Error() + ": " + e.cause.Error()
		}
		return e.kind.Error()
	}
	if e.cause != nil {
		return e.subject + ": " + e.kind.Error() + ": " + e.cause.Error()
	}
	return e.subject + ": " + e.kind.Error()
}

func (e *taggedError) Unwrap() error { return e.kind }

// Cause returns the underlying transport error, if any, the way
// pkg/errors.Cause does for wrapped backend errors.
func Cause(err error) error {
	var te *taggedError
	if errors.As(err, &te) && te.cause != nil {
		return pkgerrors.Cause(te.cause)
	}
	return pkgerrors.Cause(err)
}

// Is reports whether err (or anything it wraps) matches kind. Thin wrapper
// kept so call sites don't need to import both errors and fserrors.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}

// Retriable reports whether err is a transient failure worth retrying with
// backoff. Only ErrNetworkError (timeouts, transient 5xx, connection
// resets) is retriable; NotFound/PermissionDenied/InvalidArgument are not.
func Retriable(err error) bool {
	return errors.Is(err, ErrNetworkError)
}
