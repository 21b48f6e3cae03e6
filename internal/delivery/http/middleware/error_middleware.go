// Package middleware holds the HTTP-only middleware: authentication and error rendering.
package middleware

import (
	"log/slog"
	"net/http"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/delivery/http/response"
	domainerrors "rachel/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware renders errors returned by handlers.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler.
// Expected outcomes are logged at info; anything unexpected is logged at error and rendered opaquely.
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)
	attrs := []any{
		slog.String("method", c.Request().Method),
		slog.String("route", c.Path()),
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			logger.Error("Request failed", append(attrs, slog.Any("error", err))...)
			_ = response.Error(c, appErr.HTTPCode(), domainerrors.ErrInternalError.ErrorCode(), domainerrors.ErrInternalError.Message(), nil)

			return
		}

		logger.Info("Request rejected", append(attrs, slog.String("code", appErr.ErrorCode()))...)
		_ = response.Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details())

		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}

		_ = response.Error(c, httpErr.Code, "HTTP_ERROR", message, nil)

		return
	}

	logger.Error("Unhandled error", append(attrs, slog.Any("error", err))...)
	_ = response.InternalServerError(c)
}
