// Package errors defines structured error types for the staleweb service.
package errors

import (
	"fmt"

	"github.com/reposphere/staleweb/pkg/constants"
)

// AppError is a structured application error carrying a stable code and an
// optional wrapped cause.
type AppError struct {
	code    constants.ErrorCode
	message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the machine-readable error code.
func (e *AppError) Code() constants.ErrorCode {
	return e.code
}

// Unwrap returns the underlying cause for error chain support.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithError returns a copy of the error with the given cause attached.
// The receiver is not mutated, so sentinel errors stay immutable.
func (e *AppError) WithError(cause error) *AppError {
	return &AppError{code: e.code, message: e.message, cause: cause}
}

// New creates a new internal AppError with the given message.
func New(message string) *AppError {
	return &AppError{code: constants.ErrCodeInternal, message: message}
}

// NewError creates a new AppError with the specified code and message.
func NewError(code constants.ErrorCode, message string) *AppError {
	return &AppError{code: code, message: message}
}

// Sentinel errors shared across layers.
var (
	ErrInvalidConfig     = NewError(constants.ErrCodeConfig, "invalid configuration")
	ErrDatabaseOperation = NewError(constants.ErrCodeDatabase, "database operation failed")
	ErrNotFound          = NewError(constants.ErrCodeInvalidRequest, "not found")
)
