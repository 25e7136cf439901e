package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the pipeline stage an error belongs to
type ErrorType string

const (
	ErrTypeLoad       ErrorType = "LOAD"
	ErrTypeCleaning   ErrorType = "CLEANING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeReport     ErrorType = "REPORT"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeInput      ErrorType = "INPUT"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError of the same type, so sentinel-style checks
// like errors.Is(err, &AppError{Type: ErrTypeLoad}) work
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewLoadError creates an error for a file that is missing, unreadable or unparseable
func NewLoadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeLoad, message, cause)
}

// NewCleaningError creates an error for an unexpected failure during dedup or fill
func NewCleaningError(message string, cause error) *AppError {
	return NewAppError(ErrTypeCleaning, message, cause)
}

// NewValidationError creates an error for an unexpected failure applying the filter rule
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewReportError creates an error for a failure computing statistics or rendering the chart
func NewReportError(message string, cause error) *AppError {
	return NewAppError(ErrTypeReport, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewInputError creates an error for a malformed request or argument
func NewInputError(message string) *AppError {
	return NewAppError(ErrTypeInput, message, nil)
}

// TypeOf returns the ErrorType of the first AppError in the chain
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}
