package notification

import (
	"log/slog"
	"strings"

	"rachel/config"
	"rachel/internal/domain/service"

	"go.uber.org/fx"
)

// DispatcherParams holds dependencies for the notification dispatcher, injected by Fx.
type DispatcherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewDispatcher returns the SMTP dispatcher when smtp.host is set and the log dispatcher otherwise.
func NewDispatcher(params DispatcherParams) (service.NotificationDispatcher, error) {
	cfg := params.Config.SMTP
	if cfg == nil || strings.TrimSpace(cfg.Host) == "" {
		params.Logger.Warn("SMTP host not configured, outbound mail will only be logged")

		return &logDispatcher{logger: params.Logger}, nil
	}

	return newSMTPDispatcher(cfg, params.Logger)
}
