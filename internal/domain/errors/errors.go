package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError. Each type fixes the HTTP status and
// whether a caller may retry.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

var typeTraits = map[ErrorType]struct {
	status    int
	retryable bool
}{
	ErrorTypeValidation:   {http.StatusBadRequest, false},
	ErrorTypeNotFound:     {http.StatusNotFound, false},
	ErrorTypeUnauthorized: {http.StatusUnauthorized, false},
	ErrorTypeRateLimit:    {http.StatusTooManyRequests, true},
	ErrorTypeInternal:     {http.StatusInternalServerError, true},
	ErrorTypeExternal:     {http.StatusBadGateway, true},
}

// AppError is the structured error returned across the engine.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func newAppError(t ErrorType, code, message string) *AppError {
	traits := typeTraits[t]
	return &AppError{
		Type:       t,
		Code:       code,
		Message:    message,
		Retryable:  traits.retryable,
		StatusCode: traits.status,
	}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails merges details into the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func NewValidationError(code, message string) *AppError {
	return newAppError(ErrorTypeValidation, code, message)
}

func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, "RESOURCE_NOT_FOUND", resource+" not found")
}

func NewUnauthorizedError(message string) *AppError {
	return newAppError(ErrorTypeUnauthorized, "UNAUTHORIZED", message)
}

func NewRateLimitError(message string) *AppError {
	return newAppError(ErrorTypeRateLimit, "RATE_LIMIT_EXCEEDED", message)
}

func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, "INTERNAL_ERROR", message)
}

// NewEvaluationError reports a trust evaluation that could not produce a
// complete result. Callers must not act on any partial output.
func NewEvaluationError(message string) *AppError {
	return newAppError(ErrorTypeInternal, "TRUST_EVALUATION_FAILED", message)
}

// NewExternalError reports a failing collaborator.
func NewExternalError(collaborator, message string) *AppError {
	return newAppError(ErrorTypeExternal, "EXTERNAL_SERVICE_ERROR",
		fmt.Sprintf("%s: %s", collaborator, message)).
		WithDetails(map[string]interface{}{"collaborator": collaborator})
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsType reports whether err wraps an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr, ok := asAppError(err)
	return ok && appErr.Type == t
}

func IsRetryable(err error) bool {
	appErr, ok := asAppError(err)
	return ok && appErr.Retryable
}

// GetStatusCode returns the HTTP status for err, 500 for errors that are not AppErrors.
func GetStatusCode(err error) int {
	if appErr, ok := asAppError(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
