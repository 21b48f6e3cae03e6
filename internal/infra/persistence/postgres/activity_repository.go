package postgres

import (
	"context"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activityRepository implements the repository.ActivityRepository interface.
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository is the constructor for activityRepository.
func NewActivityRepository(db *gorm.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) Create(ctx context.Context, activity *entity.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	activityM := fromActivityDomain(activity)

	if err := repo.db.WithContext(ctx).Omit(clause.Associations).Create(activityM).Error; err != nil {
		return translateWriteError(err, "failed to create activity")
	}
	activity.CreatedAt = activityM.CreatedAt

	return nil
}

func (repo *activityRepository) ListByIdentity(ctx context.Context, identityID uuid.UUID, limit int) ([]*entity.Activity, error) {
	query := repo.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var activityModels []*model.ActivityModel
	if err := query.Find(&activityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list activities")
	}

	activities := make([]*entity.Activity, 0, len(activityModels))
	for _, m := range activityModels {
		activities = append(activities, toActivityDomain(m))
	}

	return activities, nil
}

func toActivityDomain(data *model.ActivityModel) *entity.Activity {
	return &entity.Activity{
		ID:            data.ID,
		IdentityID:    data.IdentityID,
		Type:          entity.ActivityType(data.Type),
		SourceAddress: data.SourceAddress,
		Description:   data.Description,
		CreatedAt:     data.CreatedAt,
	}
}

func fromActivityDomain(data *entity.Activity) *model.ActivityModel {
	return &model.ActivityModel{
		ID:            data.ID,
		IdentityID:    data.IdentityID,
		Type:          string(data.Type),
		SourceAddress: data.SourceAddress,
		Description:   data.Description,
		CreatedAt:     data.CreatedAt,
	}
}
