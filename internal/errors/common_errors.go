package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeFetch       ErrorType = "FETCH"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeEmptyResult ErrorType = "EMPTY_RESULT"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
)

// Sentinel errors wrapped by AppError causes
var (
	ErrEmptyTable    = stderrors.New("table has no rows")
	ErrMissingColumn = stderrors.New("missing column")
	ErrNoAccount     = stderrors.New("no ftp account")
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

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper functions for common error types

// NewFetchError creates an error for a source that could not be retrieved
func NewFetchError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFetch, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewEmptyResultError reports a stage that produced no rows
func NewEmptyResultError(stage string) *AppError {
	return NewAppError(ErrTypeEmptyResult, fmt.Sprintf("%s produced no rows", stage), ErrEmptyTable).
		WithContext("stage", stage)
}
