package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/entity"
	"rachel/internal/domain/lifecycle"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// accountNotifier runs the side effects that follow a committed account change.
// None of its methods return errors: failures are logged and the caller carries on.
type accountNotifier struct {
	identityRepo     repository.IdentityRepository
	notificationRepo repository.NotificationRepository
	dispatcher       service.NotificationDispatcher
	publisher        service.AccountEventPublisher
	metrics          service.AccountMetrics
	now              func() time.Time
	logger           *slog.Logger
}

// AccountNotifierParams holds dependencies for the account notifier, injected by Fx.
type AccountNotifierParams struct {
	fx.In

	IdentityRepo     repository.IdentityRepository
	NotificationRepo repository.NotificationRepository
	Dispatcher       service.NotificationDispatcher
	Publisher        service.AccountEventPublisher `optional:"true"`
	Metrics          service.AccountMetrics        `optional:"true"`
	Clock            func() time.Time              `optional:"true"`
	Logger           *slog.Logger
}

// NewAccountNotifier builds the notifier shared by the account services.
func NewAccountNotifier(params AccountNotifierParams) *accountNotifier {
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &accountNotifier{
		identityRepo:     params.IdentityRepo,
		notificationRepo: params.NotificationRepo,
		dispatcher:       params.Dispatcher,
		publisher:        params.Publisher,
		metrics:          metrics,
		now:              now,
		logger:           params.Logger,
	}
}

func (n *accountNotifier) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, n.logger)
}

// detach keeps request values such as the logger but drops the request's cancellation,
// so side effects still run when the client has gone away.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), lifecycle.DefaultTimeout)
}

// notifyAdministrators stores an in-app notification for every administrator and emails them.
func (n *accountNotifier) notifyAdministrators(
	ctx context.Context,
	notificationType entity.NotificationType,
	title, message string,
	exclude uuid.UUID,
) {
	ctx, cancel := detach(ctx)
	defer cancel()

	admins, err := n.identityRepo.ListByRole(ctx, entity.RoleAdministrator)
	if err != nil {
		n.log(ctx).Error("Failed to list administrators", slog.String("title", title), slog.Any("error", err))

		return
	}

	recipients := make([]string, 0, len(admins))
	for _, admin := range admins {
		if admin.ID == exclude {
			continue
		}

		notification := &entity.Notification{
			RecipientID: admin.ID,
			Title:       title,
			Message:     message,
			Type:        notificationType,
			CreatedAt:   n.now(),
		}
		if err := n.notificationRepo.Create(ctx, notification); err != nil {
			n.log(ctx).Error("Failed to store administrator notification",
				slog.String("adminID", admin.ID.String()),
				slog.Any("error", err),
			)
		}
		if admin.Email != "" {
			recipients = append(recipients, admin.Email)
		}
	}

	if len(recipients) == 0 {
		n.log(ctx).Debug("No administrator to email", slog.String("title", title))

		return
	}

	if err := n.dispatcher.Send(ctx, title, message, recipients); err != nil {
		n.log(ctx).Error("Failed to email administrators", slog.String("title", title), slog.Any("error", err))
	}
}

// emailIdentity sends a message to the identity's contact address.
func (n *accountNotifier) emailIdentity(ctx context.Context, identity *entity.Identity, subject, body string) {
	if identity == nil || identity.Email == "" {
		return
	}

	ctx, cancel := detach(ctx)
	defer cancel()

	if err := n.dispatcher.Send(ctx, subject, body, []string{identity.Email}); err != nil {
		n.log(ctx).Error("Failed to email identity",
			slog.String("identityID", identity.ID.String()),
			slog.String("subject", subject),
			slog.Any("error", err),
		)
	}
}

// publish emits an account event when a publisher is configured.
func (n *accountNotifier) publish(ctx context.Context, eventType service.AccountEventType, identity *entity.Identity, address string) {
	if n.publisher == nil {
		return
	}

	ctx, cancel := detach(ctx)
	defer cancel()

	event := &service.AccountEvent{
		RequestID:     deliverycontext.GetRequestIDFromContext(ctx),
		Type:          eventType,
		SourceAddress: address,
		OccurredAt:    n.now().UTC(),
	}
	if identity != nil {
		event.Username = identity.Username
		event.Role = identity.PrimaryRole().String()
		if identity.ID != uuid.Nil {
			event.IdentityID = identity.ID.String()
		}
	}

	if err := n.publisher.Publish(ctx, event); err != nil {
		n.log(ctx).Warn("Failed to publish account event", slog.String("type", string(eventType)), slog.Any("error", err))
	}
}

type noopMetrics struct{}

func (noopMetrics) RegistrationSucceeded(string) {}
func (noopMetrics) RegistrationRejected(string, string) {}
func (noopMetrics) LoginSucceeded() {}
func (noopMetrics) LoginFailed() {}
func (noopMetrics) LockoutTriggered() {}
func (noopMetrics) ResetRequested(string) {}
func (noopMetrics) ResetCompleted(string) {}
