package common

import (
	"errors"
	"net/http"
)

// Error codes shared across handlers. They map one-to-one onto the error
// taxonomy: validation, configuration, upstream, not-found.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeInternal      = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError builds a 400 AppError.
func ValidationError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest, nil)
}

// ConfigurationError builds a 500 AppError with a generic message so secrets
// and environment details never leak into responses.
func ConfigurationError(message string) *AppError {
	return NewAppError(CodeConfiguration, message, http.StatusInternalServerError, nil)
}

// WriteError renders err as the canonical JSON error envelope, honouring
// AppError codes and falling back to a 500 for everything else.
func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		JSONError(w, http.StatusInternalServerError, CodeInternal, "unknown error", nil)
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = CodeBadRequest
		}
		JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
}
