// Package apperr defines the error taxonomy surfaced at the I/O boundary.
// Every boundary failure carries a Kind, a fixed user-facing message, the
// HTTP status it maps to and, optionally, the internal cause. The cause is
// logged, never shown to users.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindAuth       Kind = "AUTH"
	KindForbidden  Kind = "FORBIDDEN"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindRateLimit  Kind = "RATE_LIMIT"
	KindTransport  Kind = "TRANSPORT"
	KindRequest    Kind = "REQUEST"
	KindStore      Kind = "STORE"
	KindInternal   Kind = "INTERNAL"
)

// Error is a classified application error.
type Error struct {
	Kind       Kind   `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	// Upstream is the status code returned by an external API, if any.
	Upstream int   `json:"-"`
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *Error) Unwrap() error { return e.Internal }

// Is matches another *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Internal == nil && t.Upstream == 0
}

// Wrap creates a copy of the sentinel carrying an internal cause.
func Wrap(sentinel *Error, internal error) *Error {
	return &Error{
		Kind:       sentinel.Kind,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Upstream:   sentinel.Upstream,
		Internal:   internal,
	}
}

// WithMessage creates a copy of the sentinel with a custom message.
func WithMessage(sentinel *Error, message string) *Error {
	return &Error{
		Kind:       sentinel.Kind,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Upstream:   sentinel.Upstream,
		Internal:   sentinel.Internal,
	}
}

// Validation returns a validation error with the given message.
func Validation(message string) *Error {
	return WithMessage(ErrValidation, message)
}

// UpstreamStatus builds a generic request failure for a non-success
// response from an external API.
func UpstreamStatus(status int, statusText string) *Error {
	return &Error{
		Kind:       KindRequest,
		Message:    fmt.Sprintf("API error (%d): %s", status, statusText),
		StatusCode: http.StatusBadGateway,
		Upstream:   status,
	}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether a failure is transient: rate limiting or
// transport. Nothing else is ever retried.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimit, KindTransport:
		return true
	}
	return false
}

// Input and authentication errors.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrUnauthorized       = &Error{Kind: KindAuth, Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &Error{Kind: KindAuth, Message: "Invalid credentials.", StatusCode: http.StatusUnauthorized}
	ErrDuplicateEmail     = &Error{Kind: KindConflict, Message: "This email is already in use.", StatusCode: http.StatusConflict}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrImportInProgress   = &Error{Kind: KindConflict, Message: "An import is already running for this portfolio.", StatusCode: http.StatusConflict}
	ErrInternal           = &Error{Kind: KindInternal, Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Broker errors.
var (
	ErrInvalidAPIKey = &Error{Kind: KindAuth, Message: "Invalid or expired API key.", StatusCode: http.StatusUnauthorized}
	ErrForbidden     = &Error{Kind: KindForbidden, Message: "Access denied. Check the permissions of your key.", StatusCode: http.StatusForbidden}
	ErrRateLimited   = &Error{Kind: KindRateLimit, Message: "Rate limit exceeded. Try again later.", StatusCode: http.StatusTooManyRequests}
	ErrTransport     = &Error{Kind: KindTransport, Message: "Connection failed. Check your connectivity or whether a content blocker is interfering.", StatusCode: http.StatusBadGateway}
	ErrBadPayload    = &Error{Kind: KindValidation, Message: "Unexpected data format received from the API.", StatusCode: http.StatusBadGateway}
)

// Store errors.
var (
	ErrStoreLoad   = &Error{Kind: KindStore, Message: "Could not load your portfolio from the cloud.", StatusCode: http.StatusServiceUnavailable}
	ErrStoreSave   = &Error{Kind: KindStore, Message: "Failed to sync holding with the cloud.", StatusCode: http.StatusServiceUnavailable}
	ErrStoreDelete = &Error{Kind: KindStore, Message: "Failed to remove holding from the cloud.", StatusCode: http.StatusServiceUnavailable}
	ErrStoreBatch  = &Error{Kind: KindStore, Message: "Failed to sync the batch of holdings.", StatusCode: http.StatusServiceUnavailable}
	ErrStoreUser   = &Error{Kind: KindStore, Message: "Could not reach your account. Try again later.", StatusCode: http.StatusServiceUnavailable}
)
