// Package context carries request-scoped values between the HTTP layer and the use cases.
package context

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

// ContextKey namespaces the values this package stores.
type ContextKey string

const (
	KeyRequestID ContextKey = "request_id"
	KeyLogger    ContextKey = "logger"

	// HeaderXRequestID is echoed back on every response and forwarded on published account events.
	HeaderXRequestID = "X-Request-Id"
)

func valueOf[T comparable](ctx context.Context, key ContextKey) T {
	v, _ := ctx.Value(key).(T)

	return v
}

// BindRequest attaches the request ID and a logger tagged with it to both the echo context
// and the request's context, so use cases see the same values as handlers.
func BindRequest(c echo.Context, requestID string, logger *slog.Logger) {
	reqLogger := logger.With(slog.String("request_id", requestID))

	SetRequestID(c, requestID)

	ctx := WithRequestID(c.Request().Context(), requestID)
	ctx = WithLogger(ctx, reqLogger)
	c.SetRequest(c.Request().WithContext(ctx))
}

// SetRequestID sets the request ID in echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(KeyRequestID), requestID)
}

// GetRequestID returns the request ID bound to c, falling back to the request context.
// It is empty outside of a bound request.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(string(KeyRequestID)).(string); ok && id != "" {
		return id
	}

	return GetRequestIDFromContext(c.Request().Context())
}

func GetRequestIDFromContext(ctx context.Context) string {
	return valueOf[string](ctx, KeyRequestID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, KeyRequestID, requestID)
}

// GetLogger returns the request-scoped logger, or nil.
func GetLogger(ctx context.Context) *slog.Logger {
	return valueOf[*slog.Logger](ctx, KeyLogger)
}

// GetLoggerOrDefault is GetLogger with a fallback for background work.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := GetLogger(ctx); logger != nil {
		return logger
	}

	return fallback
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}
