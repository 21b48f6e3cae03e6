package memory

import (
	"context"
	"sort"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"

	"github.com/google/uuid"
)

type notificationRepository struct {
	sess session
}

// NewNotificationRepository is the constructor for the in-memory notification repository.
func NewNotificationRepository(store *Store) repository.NotificationRepository {
	return &notificationRepository{sess: session{store: store}}
}

func (repo *notificationRepository) Create(_ context.Context, notification *entity.Notification) error {
	return repo.sess.write(func(d *dataset) error {
		if notification.ID == uuid.Nil {
			notification.ID = uuid.New()
		}
		if notification.CreatedAt.IsZero() {
			notification.CreatedAt = time.Now()
		}
		if notification.Type == "" {
			notification.Type = entity.NotificationInfo
		}
		stored := *notification
		d.notifications[notification.ID] = &stored

		return nil
	})
}

func (repo *notificationRepository) ListByRecipient(_ context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*entity.Notification, error) {
	var out []*entity.Notification
	err := repo.sess.read(func(d *dataset) error {
		for _, n := range d.notifications {
			if n.RecipientID != recipientID || n.DeletedAt != nil || (unreadOnly && n.Read) {
				continue
			}
			copied := *n
			out = append(out, &copied)
		}

		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, err
}

func (repo *notificationRepository) MarkRead(_ context.Context, id, recipientID uuid.UUID) error {
	return repo.update(id, recipientID, func(n *entity.Notification) {
		n.Read = true
	})
}

func (repo *notificationRepository) SoftDelete(_ context.Context, id, recipientID uuid.UUID) error {
	return repo.update(id, recipientID, func(n *entity.Notification) {
		now := time.Now()
		n.DeletedAt = &now
	})
}

func (repo *notificationRepository) update(id, recipientID uuid.UUID, mutate func(*entity.Notification)) error {
	return repo.sess.write(func(d *dataset) error {
		current, ok := d.notifications[id]
		if !ok || current.RecipientID != recipientID || current.DeletedAt != nil {
			return repository.ErrNotificationNotFound
		}

		next := *current
		mutate(&next)
		d.notifications[id] = &next

		return nil
	})
}
