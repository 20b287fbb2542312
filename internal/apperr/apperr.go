// Package apperr defines the error kinds surfaced by meal and statistics services.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindUpstream      Kind = "upstream_failure"
	KindInvalid       Kind = "invalid_input"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrQuotaExceeded = &Error{Kind: KindQuotaExceeded, Message: "quota exceeded"}
	ErrUpstream      = &Error{Kind: KindUpstream, Message: "upstream failure"}
	ErrInvalid       = &Error{Kind: KindInvalid, Message: "invalid input"}
)

// Error carries a kind, a user-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
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

// Is matches any *Error sharing the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return e.Kind == other.Kind
}

// NotFound reports a missing record.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// QuotaExceeded reports that the daily analysis limit is reached.
func QuotaExceeded(limit int) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: fmt.Sprintf("daily AI request limit of %d reached", limit)}
}

// Upstream wraps a store or gateway fault behind a coarse message.
func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

// Invalid reports rejected caller input.
func Invalid(message string) *Error {
	return &Error{Kind: KindInvalid, Message: message}
}

// KindOf returns the kind of err, or an empty kind for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Kind
	}
	return ""
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusBadGateway
	case KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-readable part of err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Message
	}
	return "internal error"
}
