// Package pubsub publishes account events to Google Pub/Sub or, in development, to a local HTTP endpoint.
package pubsub

import (
	"context"
	"log/slog"

	"rachel/config"
	"rachel/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// noopPublisher is used when Pub/Sub is not configured.
type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) Publish(_ context.Context, event *service.AccountEvent) error {
	p.logger.Debug("[NoopPubSub] Event publishing disabled, skipping",
		slog.String("type", string(event.Type)),
	)

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for the account event publisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewEventPublisher creates the publisher selected by pubsub.provider.
func NewEventPublisher(params PublisherParams) (service.AccountEventPublisher, error) {
	cfg := params.Config.PubSub
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" {
		logger.Info("PubSub not configured, using no-op publisher")

		return &noopPublisher{logger: logger}, nil
	}

	var publisher service.AccountEventPublisher

	switch cfg.Provider {
	case ProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP publisher for account events",
			slog.String("endpoint", cfg.LocalEndpoint),
		)

		publisher = NewLocalHTTPPublisher(cfg.LocalEndpoint, cfg.TopicID, logger)

	case ProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}

		google := newGooglePublisher(cfg.ProjectID, cfg.TopicID, logger)
		params.Lc.Append(fx.Hook{
			OnStart: google.connect,
		})
		publisher = google

	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Info("Closing account event publisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

// eventAttributes are attached to every message for subscription filtering and tracing.
func eventAttributes(event *service.AccountEvent) map[string]string {
	attributes := map[string]string{
		"type": string(event.Type),
	}
	if event.IdentityID != "" {
		attributes["identity_id"] = event.IdentityID
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
