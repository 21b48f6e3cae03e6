package repository

import (
	"context"

	"rachel/internal/domain/entity"

	"github.com/google/uuid"
)

// ActivityRepository appends to and reads an identity's activity log.
type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.Activity) error

	// ListByIdentity returns the newest entries first.
	ListByIdentity(ctx context.Context, identityID uuid.UUID, limit int) ([]*entity.Activity, error)
}
