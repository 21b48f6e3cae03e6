// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	deliverycontext "rachel/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// SuccessResponse defines the structure for successful responses
type SuccessResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Meta    *MetaInfo `json:"meta"`
}

// ErrorResponse defines the structure for error responses
type ErrorResponse struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error"`
	Meta    *MetaInfo  `json:"meta"`
}

// ErrorInfo contains detailed error information
type ErrorInfo struct {
	Code    string `json:"code"`              // Machine-readable error code, e.g., "VALIDATION_FAILED"
	Message string `json:"message"`           // User-friendly error message
	Details any    `json:"details,omitempty"` // Additional error context (only for 4xx errors)
	// Fields maps each rejected input field to its reason, for validation and conflict errors.
	Fields map[string]string `json:"fields,omitempty"`
}

// MetaInfo represents response metadata
type MetaInfo struct {
	RequestID string `json:"request_id"` // Request tracking ID
}

// Success returns a successful response
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    meta(c),
	})
}

// Error returns an error response. Details are dropped for 5xx, 401 and 403 responses.
func Error(c echo.Context, statusCode int, errorCode, message string, details any) error {
	info := &ErrorInfo{Code: errorCode, Message: message}
	if statusCode < http.StatusInternalServerError &&
		statusCode != http.StatusUnauthorized &&
		statusCode != http.StatusForbidden {
		if fields, ok := details.(map[string]string); ok {
			info.Fields = fields
		} else {
			info.Details = details
		}
	}

	return c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   info,
		Meta:    meta(c),
	})
}

// BadRequest returns a 400 error
func BadRequest(c echo.Context, errorCode, message string) error {
	return Error(c, http.StatusBadRequest, errorCode, message, nil)
}

// BindingError returns a binding error response
func BindingError(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, "INVALID_INPUT", message, nil)
}

// Unauthorized returns a 401 error
func Unauthorized(c echo.Context, errorCode, message string) error {
	return Error(c, http.StatusUnauthorized, errorCode, message, nil)
}

// Forbidden returns a 403 error
func Forbidden(c echo.Context, errorCode, message string) error {
	return Error(c, http.StatusForbidden, errorCode, message, nil)
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context) error {
	return Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error, please try again later", nil)
}

func meta(c echo.Context) *MetaInfo {
	return &MetaInfo{RequestID: deliverycontext.GetRequestID(c)}
}
