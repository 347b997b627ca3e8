package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of an application error
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindNotApproved     Kind = "not_approved"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// Machine-readable codes carried in error responses.
const (
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeAccountNotApproved    = "ACCOUNT_NOT_APPROVED"
	CodeDoctorProfileNotFound = "DOCTOR_PROFILE_NOT_FOUND"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeDuplicateReview       = "DUPLICATE_REVIEW"
	CodeStaleWrite            = "STALE_WRITE"
)

// Error is a structured application error
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode returns a copy of e carrying code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// Unauthenticated creates an authentication error
func Unauthenticated(format string, args ...any) *Error {
	return newError(KindUnauthenticated, format, args...)
}

// NotApproved creates the "awaiting approval" error raised by the status gate.
func NotApproved(message string) *Error {
	return &Error{Kind: KindNotApproved, Code: CodeAccountNotApproved, Message: message}
}

// Forbidden creates an authorization error
func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

// NotFound creates a not found error
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// Conflict creates a conflict error
func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Internal wraps an unexpected failure. The message shown to clients is the raw cause.
func Internal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotApproved, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message and code for err.
func Message(err error) (string, string) {
	if e, ok := As(err); ok {
		return e.Message, e.Code
	}
	return err.Error(), ""
}
