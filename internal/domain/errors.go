package domain

import (
	"errors"
	"net/http"
)

// AppError is a failure that maps onto the error envelope.
type AppError struct {
	Status  int
	Message string
	Errors  []string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(status int, message string, errs ...string) *AppError {
	return &AppError{Status: status, Message: message, Errors: errs}
}

// NewValidationError is returned for missing or malformed input.
func NewValidationError(message string, errs ...string) *AppError {
	return newAppError(http.StatusBadRequest, message, errs...)
}

// NewAuthenticationError covers bad credentials and invalid, expired or
// mismatched tokens.
func NewAuthenticationError(message string) *AppError {
	return newAppError(http.StatusUnauthorized, message)
}

func NewForbiddenError(message string) *AppError {
	return newAppError(http.StatusForbidden, message)
}

func NewNotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, message)
}

func NewConflictError(message string) *AppError {
	return newAppError(http.StatusConflict, message)
}

func NewTooManyRequestsError(message string) *AppError {
	return newAppError(http.StatusTooManyRequests, message)
}

// NewInternalError wraps an unexpected failure. The cause is kept for logging
// and never rendered.
func NewInternalError(message string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: message, Err: err}
}

// AsAppError unwraps err into an AppError, if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
