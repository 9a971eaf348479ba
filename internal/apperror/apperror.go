package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the caller boundary can surface it without
// inspecting messages.
type Kind string

const (
	KindNotFound           Kind = "NotFound"
	KindInvalidTransition  Kind = "InvalidTransition"
	KindInvalidState       Kind = "InvalidState"
	KindInsufficientStock  Kind = "InsufficientStock"
	KindUnknownProduct     Kind = "UnknownProduct"
	KindUnknownUser        Kind = "UnknownUser"
	KindDuplicateName      Kind = "DuplicateName"
	KindValidation         Kind = "ValidationError"
	KindForbidden          Kind = "Forbidden"
	KindUnauthenticated    Kind = "Unauthenticated"
	KindMethodNotAllowed   Kind = "MethodNotAllowed"
	KindRateLimited        Kind = "RateLimited"
	KindStorageUnavailable Kind = "StorageUnavailable"
	KindInternal           Kind = "Internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps err as the cause while reporting kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels declared per package
// can be compared with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the human-readable message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
