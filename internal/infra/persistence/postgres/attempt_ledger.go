package postgres

import (
	"context"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// attemptLedger implements repository.AttemptLedger on the append-only auth_attempts table.
// Rows are only ever inserted, so concurrent appends never contend on a shared row.
type attemptLedger struct {
	db *gorm.DB
}

// NewAttemptLedger is the constructor for attemptLedger.
func NewAttemptLedger(db *gorm.DB) repository.AttemptLedger {
	return &attemptLedger{db: db}
}

func (l *attemptLedger) Append(ctx context.Context, entry *entity.AttemptEntry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	attemptM := &model.AuthAttemptModel{
		SourceAddress: entry.SourceAddress,
		Username:      entry.Username,
		Outcome:       string(entry.Outcome),
		OccurredAt:    entry.OccurredAt,
	}
	if err := l.db.WithContext(ctx).Create(attemptM).Error; err != nil {
		return errors.Wrap(err, "failed to append auth attempt")
	}
	entry.ID = attemptM.ID

	return nil
}

func (l *attemptLedger) CountFailuresByAddress(ctx context.Context, address string, since time.Time) (int64, error) {
	return l.countFailures(ctx, "source_address = ?", address, since)
}

func (l *attemptLedger) CountFailuresByUsername(ctx context.Context, username string, since time.Time) (int64, error) {
	return l.countFailures(ctx, "LOWER(username) = LOWER(?)", username, since)
}

func (l *attemptLedger) countFailures(ctx context.Context, filter, value string, since time.Time) (int64, error) {
	var count int64
	// The count must include the attempt appended a moment ago, so it never goes to a replica.
	if err := l.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.AuthAttemptModel{}).
		Where(filter, value).
		Where("outcome = ? AND occurred_at >= ?", string(entity.AttemptFailure), since).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count auth failures")
	}

	return count, nil
}
