package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rachel/config"
	"rachel/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalHTTPPublisherPushFormat(t *testing.T) {
	var (
		received  PushMessage
		requestID string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, "account-events", newDiscardLogger())
	event := &service.AccountEvent{
		RequestID:     "req-1",
		Type:          service.AccountEventLockout,
		SourceAddress: "203.0.113.5",
		OccurredAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, publisher.Publish(context.Background(), event))

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "projects/local/subscriptions/account-events-push", received.Subscription)
	assert.Equal(t, "account.lockout", received.Message.Attributes["type"])
	assert.NotEmpty(t, received.Message.MessageID)

	data, err := base64.StdEncoding.DecodeString(received.Message.Data)
	require.NoError(t, err)

	var decoded service.AccountEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, "203.0.113.5", decoded.SourceAddress)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestLocalHTTPPublisherReportsFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, "", newDiscardLogger())
	err := publisher.Publish(context.Background(), &service.AccountEvent{Type: service.AccountEventRegistered})
	assert.Error(t, err)
}

func TestNewEventPublisherSelection(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	publisher, err := NewEventPublisher(PublisherParams{Lc: lc, Config: &config.Config{}, Logger: newDiscardLogger()})
	require.NoError(t, err)
	assert.IsType(t, &noopPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), &service.AccountEvent{Type: service.AccountEventRegistered}))

	cfg := &config.Config{PubSub: &config.PubSubConfig{Provider: ProviderLocal, LocalEndpoint: "http://localhost:9999"}}
	publisher, err = NewEventPublisher(PublisherParams{Lc: lc, Config: cfg, Logger: newDiscardLogger()})
	require.NoError(t, err)
	assert.IsType(t, &localHTTPPublisher{}, publisher)

	for _, bad := range []*config.PubSubConfig{
		{Provider: ProviderLocal},
		{Provider: ProviderGoogle, TopicID: "events"},
		{Provider: ProviderGoogle, ProjectID: "project"},
		{Provider: "kafka"},
	} {
		_, err := NewEventPublisher(PublisherParams{Lc: lc, Config: &config.Config{PubSub: bad}, Logger: newDiscardLogger()})
		assert.Error(t, err, bad.Provider)
	}

	lc.RequireStart().RequireStop()
}

func TestGooglePublisherRequiresConnection(t *testing.T) {
	publisher := newGooglePublisher("project", "events", newDiscardLogger())

	err := publisher.Publish(context.Background(), &service.AccountEvent{Type: service.AccountEventRegistered})
	assert.Error(t, err)
	assert.NoError(t, publisher.Close())
}
