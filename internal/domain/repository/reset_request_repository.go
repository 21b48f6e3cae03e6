package repository

import (
	"context"
	"errors"
	"time"

	"rachel/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrResetRequestNotFound is returned when an identity never requested a reset.
	ErrResetRequestNotFound = errors.New("reset request not found")
	// ErrResetQuotaReached is returned when the conditional increment found the counter at its maximum.
	ErrResetQuotaReached = errors.New("reset request quota reached")
	// ErrResetTokenConsumed is returned when the token was used or replaced before it could be consumed.
	ErrResetTokenConsumed = errors.New("reset token already consumed")
)

// IssueResetParams describes a freshly issued reset token.
type IssueResetParams struct {
	IdentityID  uuid.UUID
	TokenHash   string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	MaxRequests int
}

// ResetRequestRepository stores the per-identity reset counter and the current token.
type ResetRequestRepository interface {
	FindByIdentityID(ctx context.Context, identityID uuid.UUID) (*entity.ResetRequest, error)

	// Issue atomically increments the counter and stores the new token, but only while the counter
	// is below MaxRequests. It returns ErrResetQuotaReached otherwise.
	Issue(ctx context.Context, params IssueResetParams) (*entity.ResetRequest, error)

	// ConsumeToken marks the token used if it is still the current unused token.
	// It returns ErrResetTokenConsumed when another caller got there first.
	ConsumeToken(ctx context.Context, identityID uuid.UUID, tokenHash string) error

	// ResetCounter sets the counter back to zero.
	ResetCounter(ctx context.Context, identityID uuid.UUID) error
}
