package middleware

import (
	"log/slog"

	deliverycontext "rachel/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// SourceAddressMiddleware resolves the client address once per request.
// echo's IPExtractor decides which forwarding headers are trusted.
type SourceAddressMiddleware struct{}

// NewSourceAddressMiddleware creates the source address middleware.
func NewSourceAddressMiddleware() *SourceAddressMiddleware {
	return &SourceAddressMiddleware{}
}

// Process stores the resolved address in echo.Context and the request context, and tags the request logger.
func (m *SourceAddressMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		deliverycontext.SetSourceAddress(c, c.RealIP())
		address := deliverycontext.GetSourceAddress(c)

		ctx := deliverycontext.WithSourceAddress(c.Request().Context(), address)
		if logger := deliverycontext.GetLogger(ctx); logger != nil {
			ctx = deliverycontext.WithLogger(ctx, logger.With(slog.String("source_address", address)))
		}
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
