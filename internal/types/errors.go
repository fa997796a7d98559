// Package types provides common error types for proper error propagation
package types

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes across the application
type ErrorCode string

const (
	// General errors
	ErrorCodeUnknown    ErrorCode = "UNKNOWN_ERROR"
	ErrorCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrorCodeConflict   ErrorCode = "CONFLICT"
	ErrorCodeTimeout    ErrorCode = "TIMEOUT"
	ErrorCodeCancelled  ErrorCode = "CANCELLED"

	// Auth errors
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrorCodeCredentials  ErrorCode = "INVALID_CREDENTIALS"

	// Device errors
	ErrorCodeCameraNotFound ErrorCode = "CAMERA_NOT_FOUND"
	ErrorCodeSensorNotFound ErrorCode = "SENSOR_NOT_FOUND"

	// Recording session errors
	ErrorCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrorCodeSessionActive   ErrorCode = "SESSION_ALREADY_ACTIVE"
)

// ErrorSeverity indicates the severity of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// AppError represents a structured error with metadata
type AppError struct {
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Severity    ErrorSeverity          `json:"severity"`
	HTTPStatus  int                    `json:"http_status"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	UserMessage string                 `json:"user_message,omitempty"`
	Retryable   bool                   `json:"retryable"`
	RetryAfter  *time.Duration         `json:"retry_after,omitempty"`

	Cause       error  `json:"-"`
	CauseString string `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithUserMessage sets a user-friendly error message
func (e *AppError) WithUserMessage(message string) *AppError {
	e.UserMessage = message
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewAppErrorWithCause creates an error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, httpStatus int, cause error) *AppError {
	err := NewAppError(code, message, httpStatus)
	err.Cause = cause
	if cause != nil {
		err.CauseString = cause.Error()
	}
	return err
}

// NewValidationError creates a validation error
func NewValidationError(message string, details ...string) *AppError {
	err := NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
	if len(details) > 0 {
		err.Details = details[0]
	}
	err.Severity = SeverityWarning
	return err
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *AppError {
	return NewAppError(
		ErrorCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
	).WithContext("resource", resource).WithContext("id", id)
}

// NewUnauthorizedError creates an authentication error
func NewUnauthorizedError(message string) *AppError {
	err := NewAppError(ErrorCodeUnauthorized, message, http.StatusUnauthorized)
	err.Severity = SeverityWarning
	return err
}

// NewForbiddenError creates an ownership/permission error
func NewForbiddenError(resource string) *AppError {
	err := NewAppError(ErrorCodeForbidden, fmt.Sprintf("not authorized to access %s", resource), http.StatusForbidden)
	err.Severity = SeverityWarning
	return err
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeInternal, message, http.StatusInternalServerError, cause)
	err.Severity = SeverityCritical
	return err
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Retryable
	}
	return false
}
