package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Session errors
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeAuthorization  ErrorCode = "AUTHORIZATION_DENIED"

	// Account errors
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicateUsername  ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	// Query errors
	ErrCodeParameterValidation ErrorCode = "PARAMETER_VALIDATION_ERROR"

	// Infrastructure errors
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// AppError represents an application error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new application error with a formatted message
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an error code and message
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the error code of err, or "" if err is not an AppError
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given error code
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsFatal reports whether the error terminates the current session.
// Only backend connection failures are fatal; everything else is
// recoverable and the session loop re-presents the menu.
func IsFatal(err error) bool {
	return CodeOf(err) == ErrCodeConnectionFailed
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeValidation || code == ErrCodeParameterValidation
}
