package postgres

import (
	"context"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notificationRepository implements the repository.NotificationRepository interface.
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository is the constructor for notificationRepository.
func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

// Create persists a new in-app notification.
func (repo *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.Type == "" {
		notification.Type = entity.NotificationInfo
	}
	notificationM := fromNotificationDomain(notification)

	if err := repo.db.WithContext(ctx).Omit(clause.Associations).Create(notificationM).Error; err != nil {
		return translateWriteError(err, "failed to create notification")
	}

	notification.CreatedAt = notificationM.CreatedAt

	return nil
}

// ListByRecipient retrieves live notifications for a recipient, newest first.
func (repo *notificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*entity.Notification, error) {
	query := repo.db.WithContext(ctx).
		Where("recipient_id = ? AND deleted_at IS NULL", recipientID).
		Order("created_at DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notificationModels []*model.NotificationModel
	if err := query.Find(&notificationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	notifications := make([]*entity.Notification, 0, len(notificationModels))
	for _, m := range notificationModels {
		notifications = append(notifications, toNotificationDomain(m))
	}

	return notifications, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return repo.update(ctx, id, recipientID, map[string]any{"is_read": true})
}

func (repo *notificationRepository) SoftDelete(ctx context.Context, id, recipientID uuid.UUID) error {
	return repo.update(ctx, id, recipientID, map[string]any{"deleted_at": time.Now()})
}

func (repo *notificationRepository) update(ctx context.Context, id, recipientID uuid.UUID, values map[string]any) error {
	result := repo.db.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("id = ? AND recipient_id = ? AND deleted_at IS NULL", id, recipientID).
		Updates(values)
	if result.Error != nil {
		return translateWriteError(result.Error, "failed to update notification")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotificationNotFound
	}

	return nil
}

func toNotificationDomain(data *model.NotificationModel) *entity.Notification {
	return &entity.Notification{
		ID:          data.ID,
		RecipientID: data.RecipientID,
		Title:       data.Title,
		Message:     data.Message,
		Type:        entity.NotificationType(data.Type),
		Read:        data.Read,
		CreatedAt:   data.CreatedAt,
		DeletedAt:   data.DeletedAt,
	}
}

func fromNotificationDomain(data *entity.Notification) *model.NotificationModel {
	return &model.NotificationModel{
		ID:          data.ID,
		RecipientID: data.RecipientID,
		Title:       data.Title,
		Message:     data.Message,
		Type:        string(data.Type),
		Read:        data.Read,
		CreatedAt:   data.CreatedAt,
		DeletedAt:   data.DeletedAt,
	}
}
