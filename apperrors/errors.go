// Package apperrors defines the payment error taxonomy and its mapping to
// HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation_error"
	ErrorTypeSignatureMismatch ErrorType = "signature_mismatch"
	ErrorTypeGateway           ErrorType = "gateway_error"
	ErrorTypeUnsupportedInDev  ErrorType = "unsupported_in_dev_mode"
	ErrorTypeInternal          ErrorType = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError of the same Type, so errors.Is works against the
// sentinel values below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &AppError{Type: ErrorTypeValidation}
	ErrSignatureMismatch = &AppError{Type: ErrorTypeSignatureMismatch}
	ErrGateway           = &AppError{Type: ErrorTypeGateway}
	ErrUnsupportedInDev  = &AppError{Type: ErrorTypeUnsupportedInDev}
)

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewSignatureMismatchError reports a callback whose signature does not match.
// It is never retryable.
func NewSignatureMismatchError(message string, details ...string) *AppError {
	return newError(ErrorTypeSignatureMismatch, http.StatusBadRequest, message, details)
}

// NewGatewayError wraps a failed payment gateway call. The gateway's own
// message goes into Details.
func NewGatewayError(message string, cause error) *AppError {
	e := newError(ErrorTypeGateway, http.StatusInternalServerError, message, nil)
	if cause != nil {
		e.Details = cause.Error()
		e.cause = cause
	}
	return e
}

// NewUnsupportedInDevModeError reports an operation that needs a live gateway.
func NewUnsupportedInDevModeError(operation string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnsupportedInDev,
		Message: operation + " is unavailable in dev mode",
		Code:    http.StatusNotImplemented,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

func newError(typ ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    typ,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsRetryable reports whether a caller may safely repeat the failed call.
// Only gateway failures qualify, and only for idempotent reads; the caller
// decides which of its calls are reads.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrGateway)
}
