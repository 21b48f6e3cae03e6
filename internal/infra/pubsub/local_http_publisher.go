package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultLocalSubscription = "account-events"

// localHTTPPublisher POSTs events to a local endpoint in the Pub/Sub push format, for development.
type localHTTPPublisher struct {
	endpoint     string
	subscription string
	httpClient   *http.Client
	logger       *slog.Logger
}

// PushMessage is the body Pub/Sub sends to push subscriptions.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// NewLocalHTTPPublisher creates a new local HTTP publisher for development
func NewLocalHTTPPublisher(endpoint, topicID string, logger *slog.Logger) service.AccountEventPublisher {
	subscription := defaultLocalSubscription
	if topicID != "" {
		subscription = topicID + "-push"
	}

	return &localHTTPPublisher{
		endpoint:     endpoint,
		subscription: "projects/local/subscriptions/" + subscription,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (p *localHTTPPublisher) Publish(ctx context.Context, event *service.AccountEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	var push PushMessage
	push.Subscription = p.subscription
	push.Message.Data = base64.StdEncoding.EncodeToString(eventData)
	push.Message.Attributes = eventAttributes(event)
	push.Message.MessageID = uuid.NewString()
	push.Message.PublishTime = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(push)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("event endpoint returned non-success status: %d", resp.StatusCode)
	}

	deliverycontext.GetLoggerOrDefault(ctx, p.logger).Debug("[LocalPubSub] Event published",
		slog.String("type", string(event.Type)),
		slog.String("message_id", push.Message.MessageID),
	)

	return nil
}

// Close is a no-op for the HTTP client.
func (p *localHTTPPublisher) Close() error {
	return nil
}
