package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidFormat Kind = "invalid_format"
	KindInvalidNumber Kind = "invalid_number"
	KindInvalidType   Kind = "invalid_type"
	KindDuplicateKey  Kind = "duplicate_key"
	KindNotFound      Kind = "not_found"
	KindIOFailure     Kind = "io_failure"
	KindInternal      Kind = "internal"
)

// Error is a failure surfaced to the shell. Two errors match under errors.Is
// when their kinds are equal, so callers compare against the Err* values below.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

var (
	ErrInvalidFormat = New(KindInvalidFormat, "invalid format")
	ErrInvalidNumber = New(KindInvalidNumber, "invalid number")
	ErrInvalidType   = New(KindInvalidType, "invalid type")
	ErrDuplicateKey  = New(KindDuplicateKey, "duplicate key")
	ErrNotFound      = New(KindNotFound, "not found")
	ErrIOFailure     = New(KindIOFailure, "io failure")
	ErrInternal      = New(KindInternal, "internal error")
)

// KindOf reports the kind of err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindInternal, "internal error")
}
