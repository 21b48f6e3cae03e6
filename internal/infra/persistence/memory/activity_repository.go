package memory

import (
	"context"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type activityRepository struct {
	sess session
}

// NewActivityRepository is the constructor for the in-memory activity repository.
func NewActivityRepository(store *Store) repository.ActivityRepository {
	return &activityRepository{sess: session{store: store}}
}

func (repo *activityRepository) Create(_ context.Context, activity *entity.Activity) error {
	return repo.sess.write(func(d *dataset) error {
		if _, ok := d.identities[activity.IdentityID]; !ok {
			return errors.Wrapf(repository.ErrIdentityNotFound, "activity for %s", activity.IdentityID)
		}

		if activity.ID == uuid.Nil {
			activity.ID = uuid.New()
		}
		if activity.CreatedAt.IsZero() {
			activity.CreatedAt = time.Now()
		}
		stored := *activity
		d.activities[activity.IdentityID] = append(d.activities[activity.IdentityID], &stored)

		return nil
	})
}

// ListByIdentity returns the newest entries first; a non-positive limit returns everything.
func (repo *activityRepository) ListByIdentity(_ context.Context, identityID uuid.UUID, limit int) ([]*entity.Activity, error) {
	var out []*entity.Activity
	err := repo.sess.read(func(d *dataset) error {
		list := d.activities[identityID]
		for i := len(list) - 1; i >= 0; i-- {
			if limit > 0 && len(out) == limit {
				break
			}
			activity := *list[i]
			out = append(out, &activity)
		}

		return nil
	})

	return out, err
}
