package repository

import (
	"context"
	"errors"

	"rachel/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrNotificationNotFound is returned when no live notification matches.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error

	// ListByRecipient returns live notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*entity.Notification, error)

	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error

	// SoftDelete stamps DeletedAt; the row is kept.
	SoftDelete(ctx context.Context, id, recipientID uuid.UUID) error
}
