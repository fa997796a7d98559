// Package api provides error handling utilities for HTTP APIs
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/types"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	UserMessage string                 `json:"user_message,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// RespondWithError sends a structured error response
func RespondWithError(c *gin.Context, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		response := ErrorResponse{
			Success: false,
			Error: ErrorDetails{
				Code:        string(appErr.Code),
				Message:     appErr.Message,
				Details:     appErr.Details,
				UserMessage: appErr.UserMessage,
				Context:     appErr.Context,
			},
		}

		logError(appErr)
		c.JSON(appErr.HTTPStatus, response)
		return
	}

	// Generic errors: best-effort classification from the message
	httpStatus := http.StatusInternalServerError
	errorCode := types.ErrorCodeInternal

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "not found"):
		httpStatus = http.StatusNotFound
		errorCode = types.ErrorCodeNotFound
	case strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "required"):
		httpStatus = http.StatusBadRequest
		errorCode = types.ErrorCodeValidation
	case strings.Contains(errMsg, "timeout"):
		httpStatus = http.StatusGatewayTimeout
		errorCode = types.ErrorCodeTimeout
	}

	logger.Error("unstructured error", "error", err)
	c.JSON(httpStatus, ErrorResponse{
		Success: false,
		Error: ErrorDetails{
			Code:    string(errorCode),
			Message: errMsg,
		},
	})
}

// RespondWithNotFound sends a not found error response
func RespondWithNotFound(c *gin.Context, resource string, id string) {
	RespondWithError(c, types.NewNotFoundError(resource, id))
}

// RespondWithValidationError sends a validation error response
func RespondWithValidationError(c *gin.Context, message string, details ...string) {
	RespondWithError(c, types.NewValidationError(message, details...))
}

// RespondWithInternalError sends an internal error response
func RespondWithInternalError(c *gin.Context, message string, cause error) {
	RespondWithError(c, types.NewInternalError(message, cause))
}

// logError logs the error with appropriate severity
func logError(err *types.AppError) {
	fields := []interface{}{
		"error_code", err.Code,
		"error_message", err.Message,
	}
	if err.Details != "" {
		fields = append(fields, "details", err.Details)
	}
	if err.Cause != nil {
		fields = append(fields, "cause", err.Cause.Error())
	}

	switch err.Severity {
	case types.SeverityCritical, types.SeverityError:
		logger.Error("request failed", fields...)
	case types.SeverityWarning:
		logger.Warn("request rejected", fields...)
	default:
		logger.Info("request error", fields...)
	}
}

// ErrorMiddleware recovers from panics and converts them to error responses
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var err error
				switch v := r.(type) {
				case error:
					err = v
				case string:
					err = errors.New(v)
				default:
					err = errors.New("unknown panic")
				}

				logger.Error("panic recovered",
					"error", err,
					"request_path", c.Request.URL.Path,
					"request_method", c.Request.Method,
				)

				appErr := types.NewInternalError("panic recovered", err)
				RespondWithError(c, appErr)
				c.Abort()
			}
		}()

		c.Next()
	}
}
