package notification

import (
	"context"
	"log/slog"

	deliverycontext "rachel/internal/delivery/context"
)

// logDispatcher writes messages to the log instead of sending them. Used when no SMTP host is configured.
type logDispatcher struct {
	logger *slog.Logger
}

func (d *logDispatcher) Send(ctx context.Context, subject, body string, recipients []string) error {
	deliverycontext.GetLoggerOrDefault(ctx, d.logger).Info("Mail not sent, SMTP is not configured",
		slog.String("subject", subject),
		slog.Any("recipients", recipients),
		slog.Int("body_length", len(body)),
	)

	return nil
}
