package memory

import (
	"context"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"

	"github.com/google/uuid"
)

type resetRequestRepository struct {
	sess session
}

// NewResetRequestRepository is the constructor for the in-memory reset request repository.
func NewResetRequestRepository(store *Store) repository.ResetRequestRepository {
	return &resetRequestRepository{sess: session{store: store}}
}

func (repo *resetRequestRepository) FindByIdentityID(_ context.Context, identityID uuid.UUID) (*entity.ResetRequest, error) {
	var found *entity.ResetRequest
	err := repo.sess.read(func(d *dataset) error {
		record, ok := d.resets[identityID]
		if !ok {
			return repository.ErrResetRequestNotFound
		}
		copied := *record
		found = &copied

		return nil
	})

	return found, err
}

// Issue checks and increments the counter under the write lock, so it cannot overshoot.
func (repo *resetRequestRepository) Issue(_ context.Context, params repository.IssueResetParams) (*entity.ResetRequest, error) {
	var issued *entity.ResetRequest
	err := repo.sess.write(func(d *dataset) error {
		next := entity.ResetRequest{IdentityID: params.IdentityID}
		if current, ok := d.resets[params.IdentityID]; ok {
			if current.RequestCount >= params.MaxRequests {
				return repository.ErrResetQuotaReached
			}
			next = *current
		} else if params.MaxRequests <= 0 {
			return repository.ErrResetQuotaReached
		}

		next.RequestCount++
		next.TokenHash = params.TokenHash
		next.TokenUsed = false
		next.IssuedAt = params.IssuedAt
		next.ExpiresAt = params.ExpiresAt
		d.resets[params.IdentityID] = &next

		copied := next
		issued = &copied

		return nil
	})

	return issued, err
}

func (repo *resetRequestRepository) ConsumeToken(_ context.Context, identityID uuid.UUID, tokenHash string) error {
	return repo.sess.write(func(d *dataset) error {
		current, ok := d.resets[identityID]
		if !ok || current.TokenUsed || current.TokenHash != tokenHash {
			return repository.ErrResetTokenConsumed
		}

		next := *current
		next.TokenUsed = true
		d.resets[identityID] = &next

		return nil
	})
}

func (repo *resetRequestRepository) ResetCounter(_ context.Context, identityID uuid.UUID) error {
	return repo.sess.write(func(d *dataset) error {
		current, ok := d.resets[identityID]
		if !ok {
			return repository.ErrResetRequestNotFound
		}

		next := *current
		next.RequestCount = 0
		d.resets[identityID] = &next

		return nil
	})
}
