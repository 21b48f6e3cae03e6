package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// googlePublisher publishes account events to a Google Cloud Pub/Sub topic.
// The client is created when the application starts.
type googlePublisher struct {
	projectID string
	topicID   string
	logger    *slog.Logger

	mu        sync.RWMutex
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

func newGooglePublisher(projectID, topicID string, logger *slog.Logger) *googlePublisher {
	return &googlePublisher{projectID: projectID, topicID: topicID, logger: logger}
}

func (p *googlePublisher) connect(ctx context.Context) error {
	client, err := pubsub.NewClient(ctx, p.projectID)
	if err != nil {
		return errors.WithStack(err)
	}

	topicPath := fmt.Sprintf("projects/%s/topics/%s", p.projectID, p.topicID)
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topicPath}); err != nil {
		_ = client.Close()

		return errors.Wrapf(err, "failed to get topic %s", p.topicID)
	}

	p.mu.Lock()
	p.client = client
	p.publisher = client.Publisher(p.topicID)
	p.mu.Unlock()

	p.logger.Info("Google Pub/Sub publisher initialized",
		slog.String("project_id", p.projectID),
		slog.String("topic_id", p.topicID),
	)

	return nil
}

func (p *googlePublisher) Publish(ctx context.Context, event *service.AccountEvent) error {
	p.mu.RLock()
	publisher := p.publisher
	p.mu.RUnlock()
	if publisher == nil {
		return errors.New("google pub/sub publisher is not connected")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	result := publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: eventAttributes(event),
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		return errors.Wrapf(err, "publish %s", event.Type)
	}

	deliverycontext.GetLoggerOrDefault(ctx, p.logger).Debug("[GooglePubSub] Event published",
		slog.String("type", string(event.Type)),
		slog.String("server_id", serverID),
	)

	return nil
}

func (p *googlePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.publisher != nil {
		p.publisher.Stop()
		p.publisher = nil
	}
	if p.client != nil {
		err := p.client.Close()
		p.client = nil

		return errors.WithStack(err)
	}

	return nil
}
