package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP layer and callers can react without string matching.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindConflict           Kind = "CONFLICT"
	KindNotFound           Kind = "NOT_FOUND"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindTimeout            Kind = "TIMEOUT"
	KindTransientStore     Kind = "TRANSIENT_STORE"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
)

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrTransientStore     = &Error{Kind: KindTransientStore}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
)

// Error is the single error type returned by the core services.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound) works on wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Validation(op, format string, args ...interface{}) error {
	return newError(KindValidation, op, format, args...)
}

func Conflict(op, format string, args ...interface{}) error {
	return newError(KindConflict, op, format, args...)
}

func NotFound(op, format string, args ...interface{}) error {
	return newError(KindNotFound, op, format, args...)
}

func ServiceUnavailable(op, format string, args ...interface{}) error {
	return newError(KindServiceUnavailable, op, format, args...)
}

func Timeout(op, format string, args ...interface{}) error {
	return newError(KindTimeout, op, format, args...)
}

func Unauthorized(op, format string, args ...interface{}) error {
	return newError(KindUnauthorized, op, format, args...)
}

func Forbidden(op, format string, args ...interface{}) error {
	return newError(KindForbidden, op, format, args...)
}

// Store wraps a failure coming back from the document store. Errors that already
// carry a Kind pass through untouched.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindTransientStore, Op: op, Message: "document store request failed", Err: err}
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code the controllers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindTransientStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
