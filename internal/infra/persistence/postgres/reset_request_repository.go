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
)

// issueResetSQL increments the counter and replaces the token in a single statement.
// The WHERE on the conflict branch makes the quota check and the increment atomic.
const issueResetSQL = `
INSERT INTO password_reset_requests
	(identity_id, request_count, token_hash, token_used, issued_at, expires_at, updated_at)
VALUES (?, 1, ?, false, ?, ?, ?)
ON CONFLICT (identity_id) DO UPDATE SET
	request_count = password_reset_requests.request_count + 1,
	token_hash    = EXCLUDED.token_hash,
	token_used    = false,
	issued_at     = EXCLUDED.issued_at,
	expires_at    = EXCLUDED.expires_at,
	updated_at    = EXCLUDED.updated_at
WHERE password_reset_requests.request_count < ?
RETURNING identity_id, request_count, token_hash, token_used, issued_at, expires_at, updated_at`

// resetRequestRepository implements the repository.ResetRequestRepository interface.
type resetRequestRepository struct {
	db *gorm.DB
}

// NewResetRequestRepository is the constructor for resetRequestRepository.
func NewResetRequestRepository(db *gorm.DB) repository.ResetRequestRepository {
	return &resetRequestRepository{db: db}
}

func (repo *resetRequestRepository) FindByIdentityID(ctx context.Context, identityID uuid.UUID) (*entity.ResetRequest, error) {
	var resetM model.ResetRequestModel
	if err := repo.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		First(&resetM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResetRequestNotFound
		}

		return nil, errors.Wrap(err, "failed to find reset request")
	}

	return toResetRequestDomain(&resetM), nil
}

func (repo *resetRequestRepository) Issue(ctx context.Context, params repository.IssueResetParams) (*entity.ResetRequest, error) {
	if params.MaxRequests <= 0 {
		return nil, repository.ErrResetQuotaReached
	}

	var resetM model.ResetRequestModel
	result := repo.db.WithContext(ctx).Raw(issueResetSQL,
		params.IdentityID,
		params.TokenHash,
		params.IssuedAt,
		params.ExpiresAt,
		time.Now(),
		params.MaxRequests,
	).Scan(&resetM)
	if result.Error != nil {
		return nil, translateWriteError(result.Error, "failed to issue reset token")
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrResetQuotaReached
	}

	return toResetRequestDomain(&resetM), nil
}

func (repo *resetRequestRepository) ConsumeToken(ctx context.Context, identityID uuid.UUID, tokenHash string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ResetRequestModel{}).
		Where("identity_id = ? AND token_hash = ? AND token_used = ?", identityID, tokenHash, false).
		Updates(map[string]any{"token_used": true, "updated_at": time.Now()})
	if result.Error != nil {
		return translateWriteError(result.Error, "failed to consume reset token")
	}
	if result.RowsAffected == 0 {
		return repository.ErrResetTokenConsumed
	}

	return nil
}

func (repo *resetRequestRepository) ResetCounter(ctx context.Context, identityID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ResetRequestModel{}).
		Where("identity_id = ?", identityID).
		Updates(map[string]any{"request_count": 0, "updated_at": time.Now()})
	if result.Error != nil {
		return translateWriteError(result.Error, "failed to reset request counter")
	}
	if result.RowsAffected == 0 {
		return repository.ErrResetRequestNotFound
	}

	return nil
}

func toResetRequestDomain(data *model.ResetRequestModel) *entity.ResetRequest {
	return &entity.ResetRequest{
		IdentityID:   data.IdentityID,
		RequestCount: data.RequestCount,
		TokenHash:    data.TokenHash,
		TokenUsed:    data.TokenUsed,
		IssuedAt:     data.IssuedAt,
		ExpiresAt:    data.ExpiresAt,
	}
}
