package apperror

import "net/http"

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation_error"
	KindUpstream        Kind = "upstream_failure"
	KindConflict        Kind = "conflict"
	KindTooLarge        Kind = "too_large"
	KindUnsupported     Kind = "unsupported_media_type"
	KindRateLimited     Kind = "rate_limited"
	KindInternal        Kind = "internal"
)

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Kind    Kind              // Error class
	Code    int               // HTTP Status Code (e.g., 400, 404)
	Message string            // User-facing error message
	Details map[string]string // Per-field problems, only set for validation errors
	Err     error             // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind and message.
// This lets package-level sentinels match copies wrapped with a cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Kind:    kindForStatus(code),
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Kind:    kindForStatus(code),
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Unauthenticated is returned when no valid session is attached to the request.
func Unauthenticated(message string) *AppError {
	return New(http.StatusUnauthorized, message)
}

// Forbidden is returned when the principal may not act on the resource.
func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message)
}

// NotFound is returned when an identifier does not resolve.
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message)
}

// Validation carries the failing fields of a request body.
func Validation(message string, details map[string]string) *AppError {
	e := New(http.StatusBadRequest, message)
	e.Details = details
	return e
}

// Upstream wraps a failure of an external backend (object storage, cache).
func Upstream(err error, message string) *AppError {
	e := Wrap(err, http.StatusBadGateway, message)
	e.Kind = KindUpstream
	return e
}

// WithCause returns a copy of e that wraps err.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusRequestEntityTooLarge:
		return KindTooLarge
	case http.StatusUnsupportedMediaType:
		return KindUnsupported
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return KindUpstream
	default:
		return KindInternal
	}
}
