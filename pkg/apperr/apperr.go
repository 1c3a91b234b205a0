// Package apperr defines the domain error taxonomy shared by the booking
// and availability services. Handlers branch on the error kind to choose
// an HTTP status; services return these errors unchanged so callers can
// distinguish retryable conflicts from bad input.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// Validation marks malformed or out-of-policy input. Never retried.
	Validation Kind = iota + 1
	// NotFound marks a referenced entity that is absent or not owned by
	// the caller.
	NotFound
	// Conflict marks exhausted capacity or overlapping time windows. The
	// caller may retry with a different slot or time.
	Conflict
	// Internal marks an unexpected failure; detail is logged, not leaked.
	Internal
)

// Error is a domain error with a kind and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) error {
	return &Error{Kind: Conflict, Msg: fmt.Sprintf(format, args...)}
}

// Internalf wraps an unexpected error so internal detail is preserved for
// logging but callers only see a generic message.
func Internalf(err error, format string, args ...interface{}) error {
	return &Error{Kind: Internal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKnown reports whether err carries one of the domain kinds, i.e. it was
// raised deliberately rather than being an unexpected failure.
func IsKnown(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func IsValidation(err error) bool { return is(err, Validation) }
func IsNotFound(err error) bool   { return is(err, NotFound) }
func IsConflict(err error) bool   { return is(err, Conflict) }
func IsInternal(err error) bool   { return is(err, Internal) }

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
