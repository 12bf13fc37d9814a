// Package errors provides structured error handling for the pipeline
// Following enterprise patterns for error management and observability
package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

// Error codes grouped by the recovery behavior they demand
const (
	// Not retried; the item is skipped with a reason
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeNotFound         ErrorCode = "NOT_FOUND"

	// Converted to a success result with already_existed=true
	CodeDuplicate ErrorCode = "DUPLICATE"

	// Retried with exponential backoff
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	CodeRateLimited          ErrorCode = "RATE_LIMITED"

	// Single re-prompt, then local-parser fallback
	CodeSchemaFailure ErrorCode = "SCHEMA_FAILURE"

	// Aborts the process
	CodeConfiguration      ErrorCode = "CONFIGURATION_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// Process exit codes for the CLI
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitValidation  = 2
	ExitUnavailable = 3
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the workflow engine should retry the operation.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeDatabaseError, CodeExternalServiceError, CodeRateLimited, CodeServiceUnavailable:
		return true
	default:
		return false
	}
}

// ExitCode maps the error to a process exit code.
func (e *AppError) ExitCode() int {
	switch e.Code {
	case CodeValidationFailed, CodeBadRequest:
		return ExitValidation
	case CodeServiceUnavailable, CodeExternalServiceError, CodeConfiguration:
		return ExitUnavailable
	default:
		return ExitFailure
	}
}

// StatusCode returns the appropriate HTTP status code for the query shim.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicate:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewDuplicateError creates a duplicate error carrying the existing identifier
func NewDuplicateError(identifier string) *AppError {
	return NewAppError(
		CodeDuplicate,
		"Recipe already exists",
		fmt.Sprintf("A recipe with identifier %s is already stored", identifier),
	).WithMetadata("identifier", identifier)
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// NewRateLimitedError creates a rate limited error
func NewRateLimitedError(service string) *AppError {
	return NewAppError(
		CodeRateLimited,
		"Rate limited",
		fmt.Sprintf("%s rejected the request due to rate limits", service),
	).WithMetadata("service", service)
}

// NewSchemaFailureError creates a model-output schema failure
func NewSchemaFailureError(details string, cause error) *AppError {
	return NewAppError(CodeSchemaFailure, "Model output did not match schema", details).WithCause(cause)
}

// NewConfigurationError creates a fatal configuration error
func NewConfigurationError(details string) *AppError {
	return NewAppError(CodeConfiguration, "Invalid configuration", details)
}

// NewServiceUnavailableError marks a required dependency as unreachable
func NewServiceUnavailableError(service string, cause error) *AppError {
	return NewAppError(
		CodeServiceUnavailable,
		"Service unavailable",
		fmt.Sprintf("%s is unreachable", service),
	).WithCause(cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Retryable()
	}
	return true
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}
