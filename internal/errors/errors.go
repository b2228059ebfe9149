// Package errors defines the service error taxonomy shared by all API
// handlers. Every error that reaches the HTTP boundary is either a
// *ServiceError with a declared status and code, or it is coerced to a
// generic internal error so upstream detail never leaks to callers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeBadRequest        Code = "bad_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeRateLimited       Code = "rate_limited"
	CodeUnavailable       Code = "unavailable"
	CodeInternal          Code = "internal_error"
	CodeInvalidToken      Code = "invalid_token"
	CodeStreamingDisabled Code = "streaming_disabled"
	CodeAdminUnconfigured Code = "admin_token_unconfigured"
)

// ServiceError carries an HTTP status, a stable code, and a human message.
type ServiceError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a detail field and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a ServiceError with a caller-specified status and code. It is
// the escape hatch for feature-specific statuses that the fixed taxonomy
// does not cover.
func New(status int, code Code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status}
}

// BadRequest marks input that failed validation or is structurally invalid.
func BadRequest(message string) *ServiceError {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized marks a request with no valid caller identity.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "authentication required"
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden marks a caller that lacks permission for the target resource.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "permission denied"
	}
	return New(http.StatusForbidden, CodeForbidden, message)
}

// NotFound marks a resource that does not exist or is not visible.
func NotFound(message string) *ServiceError {
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Conflict marks a uniqueness or state conflict.
func Conflict(message string) *ServiceError {
	return New(http.StatusConflict, CodeConflict, message)
}

// Unavailable marks a feature that is switched off or a dependency that is
// temporarily unreachable.
func Unavailable(code Code, message string) *ServiceError {
	return New(http.StatusServiceUnavailable, code, message)
}

// RateLimitExceeded marks a caller over its request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return New(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded").
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Internal wraps an unexpected failure. The wrapped cause is logged
// server-side; only the message crosses the wire.
func Internal(message string, err error) *ServiceError {
	if message == "" {
		message = "internal server error"
	}
	return &ServiceError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// InvalidToken marks a session token that failed verification.
func InvalidToken(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidToken,
		Message:    "invalid or expired token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// GetServiceError returns the *ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}
