package usecase

import (
	"context"

	"rachel/internal/domain/entity"
)

// LockoutUsecase tracks authentication attempts and decides lockouts.
type LockoutUsecase interface {
	// RecordAttempt routes the attempt to OnSuccess or OnFailure.
	RecordAttempt(ctx context.Context, username, address string, succeeded bool) error

	// IsLockedOut accepts either a username or a source address.
	IsLockedOut(ctx context.Context, usernameOrAddress string) (bool, error)

	// IsAttemptBlocked reports whether a login for username from address must be refused.
	// A locked address alone does not block other usernames.
	IsAttemptBlocked(ctx context.Context, username, address string) (bool, error)

	// RecordBlocked appends an attempt that was refused because of an active lockout.
	RecordBlocked(ctx context.Context, username, address string) error

	OnFailure(ctx context.Context, username, address string) (*entity.LockoutDecision, error)

	// OnSuccess records the success without clearing history.
	OnSuccess(ctx context.Context, username, address string) error

	// Clear lifts the lockout of a username or address. The ledger is untouched.
	Clear(ctx context.Context, usernameOrAddress string) error
}
