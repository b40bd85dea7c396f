package operations

import (
	"context"
	"errors"
	"fmt"

	apperrors "balag/internal/errors"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// OperationError represents a step failure
type OperationError struct {
	Type      ErrorType `json:"type"`
	Step      string    `json:"step,omitempty"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: "step cannot run",
		Cause:   cause,
	}
}

// NewExecutionError creates a new execution error. Fetch failures are
// retryable.
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:      ErrorTypeExecution,
		Step:      step,
		Message:   "step execution failed",
		Cause:     cause,
		Retryable: apperrors.IsType(cause, apperrors.ErrTypeFetch),
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
		Cause:   cause,
	}
}

// NewFatalError creates a new fatal error
func NewFatalError(message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Message: message,
		Cause:   cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Retryable
	}
	return false
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeCancellation
	}
	return ErrorTypeExecution
}
