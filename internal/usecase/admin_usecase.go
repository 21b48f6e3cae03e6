package usecase

import (
	"context"

	"github.com/google/uuid"
)

// AdminUsecase holds operations reserved for administrators.
// Every method checks that actorID belongs to an administrator.
type AdminUsecase interface {
	ActivateIdentity(ctx context.Context, actorID, identityID uuid.UUID, address string) error
	DeactivateIdentity(ctx context.Context, actorID, identityID uuid.UUID, address string) error
	IsLockedOut(ctx context.Context, actorID uuid.UUID, subject string) (bool, error)
	ClearLockout(ctx context.Context, actorID uuid.UUID, subject string) error
	OverrideResetQuota(ctx context.Context, actorID, identityID uuid.UUID) error
	InitiatePasswordReset(ctx context.Context, actorID, identityID uuid.UUID, address string) error
}
