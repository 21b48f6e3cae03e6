package usecase

import (
	"context"

	"github.com/google/uuid"
)

// PasswordResetUsecase manages single-use, time-boxed reset tokens under a per-identity quota.
type PasswordResetUsecase interface {
	CanRequest(ctx context.Context, identityID uuid.UUID) (bool, error)

	// RequestReset issues a new token and emails the reset link.
	// It fails with domainerrors.ErrResetQuotaExhausted once the quota is spent.
	RequestReset(ctx context.Context, identityID uuid.UUID, address string) (string, error)

	// RequestResetByEmail looks the identity up by email. Unknown emails are ignored silently.
	RequestResetByEmail(ctx context.Context, email, address string) error

	// CompleteReset consumes the token and stores the new password.
	// Unknown, used and expired tokens all fail with domainerrors.ErrResetTokenInvalid.
	CompleteReset(ctx context.Context, identityID uuid.UUID, token, newPassword, address string) error

	// OverrideQuota clears the request counter. Reserved for administrators.
	OverrideQuota(ctx context.Context, identityID uuid.UUID) error
}
