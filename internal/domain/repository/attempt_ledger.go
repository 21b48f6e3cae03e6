package repository

import (
	"context"
	"time"

	"rachel/internal/domain/entity"
)

// AttemptLedger is the append-only record of authentication attempts.
// Appends may race freely; rows are never updated or removed.
type AttemptLedger interface {
	Append(ctx context.Context, entry *entity.AttemptEntry) error

	// CountFailuresByAddress counts failures from address at or after since, across every username.
	CountFailuresByAddress(ctx context.Context, address string, since time.Time) (int64, error)

	// CountFailuresByUsername counts failures for username at or after since, across every address.
	CountFailuresByUsername(ctx context.Context, username string, since time.Time) (int64, error)
}

// LockoutStore keeps lockout timestamps per subject.
type LockoutStore interface {
	// Get returns the stored state, or nil when the subject was never locked.
	// Elapsed states are still returned while they are retained.
	Get(ctx context.Context, subject entity.LockoutSubject) (*entity.LockoutState, error)

	// Extend sets the lockout to lockedUntil unless a later value is already stored.
	// fresh is true when no lockout was in force at now before the call.
	Extend(ctx context.Context, subject entity.LockoutSubject, lockedUntil, now time.Time) (state *entity.LockoutState, fresh bool, err error)

	// Clear removes the state for subject.
	Clear(ctx context.Context, subject entity.LockoutSubject) error
}
