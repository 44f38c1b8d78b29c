// Package codecerr implements the WebCodecs error taxonomy:
// a fixed set of error "kinds" and the rule for how each is delivered —
// a synchronous throw from a host-called method, or an asynchronous
// delivery through a pipeline's error callback.
package codecerr

import (
	"errors"
	"fmt"
)

// Kind identifies which branch of the WebCodecs error taxonomy an error
// belongs to. The string form is part of the contract: hosts match on
// it, including by substring when inspecting an error message.
type Kind string

// Error kinds.
const (
	KindTypeError     Kind = "TypeError"
	KindRangeError    Kind = "RangeError"
	KindInvalidState  Kind = "InvalidStateError"
	KindQuotaExceeded Kind = "QuotaExceededError"
	KindNotSupported  Kind = "NotSupportedError"
	KindDataError     Kind = "DataError"
	KindEncodingError Kind = "EncodingError"
	KindAbortError    Kind = "AbortError"
)

// Sentinel errors for comparisons with errors.Is where no extra context
// is needed.
var (
	ErrClosed   = errors.New("object is closed")
	ErrDetached = errors.New("buffer is detached")
)

// Error is the common shape for every taxonomy member: a Kind plus a
// human-readable message. It implements error and exposes Is() so
// callers can test e.g. errors.Is(err, codecerr.New(codecerr.KindDataError, "")).
type Error struct {
	Kind    Kind
	Message string
	// Wrapped is an optional underlying cause (e.g. an engine-reported
	// failure surfaced as EncodingError).
	Wrapped error
}

// New creates a taxonomy error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a taxonomy error of the given kind around a cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: cause}
}

// Error implements the error interface. The kind name is always present
// in the message so a host can substring-match on it without a type
// assertion.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is treats two *Error values as equal when their Kind matches,
// regardless of message — this lets callers write
// errors.Is(err, &Error{Kind: KindDataError}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// TypeError constructs a synchronous-throw TypeError (invalid enum,
// missing field, type mismatch).
func TypeError(format string, args ...any) *Error {
	return New(KindTypeError, format, args...)
}

// RangeError constructs a synchronous-throw RangeError (undersized
// buffer, out-of-bounds rect/planeIndex/frameIndex).
func RangeError(format string, args ...any) *Error {
	return New(KindRangeError, format, args...)
}

// InvalidStateError constructs an InvalidStateError: synchronous when
// thrown from encode/decode/configure, a rejection when returned from a
// future (flush, ImageDecoder.decode).
func InvalidStateError(format string, args ...any) *Error {
	return New(KindInvalidState, format, args...)
}

// QuotaExceeded constructs the queue-backpressure error. The message
// always contains both "QuotaExceededError" and "backpressure" so hosts
// can match on either.
func QuotaExceeded(queued, max int) *Error {
	return New(KindQuotaExceeded,
		"QuotaExceededError: queue backpressure, %d items queued exceeds hard limit %d", queued, max)
}

// NotSupportedError constructs an async NotSupportedError (engine
// rejects a configuration it was never able to honor).
func NotSupportedError(format string, args ...any) *Error {
	return New(KindNotSupported, format, args...)
}

// DataError constructs the async DataError fired when the first
// post-configure decoder input is not a keyframe.
func DataError(format string, args ...any) *Error {
	return New(KindDataError, format, args...)
}

// EncodingError wraps an engine-origin failure for async delivery via
// the error callback.
func EncodingError(cause error, format string, args ...any) *Error {
	return Wrap(KindEncodingError, cause, format, args...)
}

// AbortError constructs the rejection delivered to a pending flush (or
// ImageDecoder.decode) future when reset()/close() cancels it.
func AbortError(format string, args ...any) *Error {
	return New(KindAbortError, format, args...)
}

// IsKind reports whether err is a taxonomy *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
