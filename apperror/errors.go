// Package apperror carries an HTTP status and a client-safe message with
// every domain error. middleware.ErrorHandler renders them; anything that is
// not an *AppError is reported as a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const internalMessage = "An unexpected error occurred. Please try again."

type AppError struct {
	// Code is the HTTP status code.
	Code int
	// Type is a machine-readable classifier such as "validation_error".
	Type string
	// Message is safe to show to the client.
	Message string
	// Internal is logged, never sent to the client.
	Internal error
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

func NewValidation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "validation_error", Message: message}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: "unauthorized", Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: "forbidden", Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: "not_found", Message: message}
}

// NewConflict reports a duplicate unique key. Clients of this API expect a
// 400 for it, not a 409.
func NewConflict(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "conflict", Message: message}
}

func NewTooManyRequests(message string) *AppError {
	return &AppError{Code: http.StatusTooManyRequests, Type: "rate_limited", Message: message}
}

// NewDependency wraps a store, mail or storage failure.
func NewDependency(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "dependency_error",
		Message:  internalMessage,
		Internal: err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  internalMessage,
		Internal: err,
	}
}

// From returns err as an *AppError, wrapping unknown errors as internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}
