// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown             = "UNKNOWN_ERROR"
	CodeInvalidParameter    = "INVALID_PARAMETER"
	CodeDetectionError      = "DETECTION_ERROR"
	CodeConsistencyError    = "CONSISTENCY_ERROR"
	CodeUnsupportedStrategy = "UNSUPPORTED_STRATEGY"
	CodeConfigError         = "CONFIG_ERROR"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeStorageError        = "STORAGE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeTimeout             = "TIMEOUT_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrInvalidParameter    = New(CodeInvalidParameter, "invalid parameter")
	ErrDetectionError      = New(CodeDetectionError, "resource detection failed")
	ErrConsistencyError    = New(CodeConsistencyError, "internal consistency violation")
	ErrUnsupportedStrategy = New(CodeUnsupportedStrategy, "unsupported group strategy")
	ErrConfigError         = New(CodeConfigError, "configuration error")
	ErrDatabaseError       = New(CodeDatabaseError, "database error")
	ErrStorageError        = New(CodeStorageError, "storage error")
	ErrNotFound            = New(CodeNotFound, "resource not found")
	ErrTimeout             = New(CodeTimeout, "operation timeout")
)

// IsInvalidParameter checks if the error is an invalid parameter error.
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

// IsDetectionError checks if the error is a resource detection error.
func IsDetectionError(err error) bool {
	return errors.Is(err, ErrDetectionError)
}

// IsConsistencyError checks if the error is an internal consistency violation.
func IsConsistencyError(err error) bool {
	return errors.Is(err, ErrConsistencyError)
}

// IsNotFound checks if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
