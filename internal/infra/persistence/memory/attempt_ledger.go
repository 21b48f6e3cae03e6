package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
)

// attemptLedger keeps attempts in arrival order. It has its own lock so authentication
// traffic never waits on account transactions.
type attemptLedger struct {
	mu      sync.RWMutex
	entries []entity.AttemptEntry
}

// NewAttemptLedger is the constructor for the in-memory attempt ledger.
func NewAttemptLedger() repository.AttemptLedger {
	return &attemptLedger{}
}

func (l *attemptLedger) Append(_ context.Context, entry *entity.AttemptEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.ID = int64(len(l.entries) + 1)
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	l.entries = append(l.entries, *entry)

	return nil
}

func (l *attemptLedger) CountFailuresByAddress(_ context.Context, address string, since time.Time) (int64, error) {
	return l.count(func(e *entity.AttemptEntry) bool { return e.SourceAddress == address }, since), nil
}

func (l *attemptLedger) CountFailuresByUsername(_ context.Context, username string, since time.Time) (int64, error) {
	return l.count(func(e *entity.AttemptEntry) bool { return strings.EqualFold(e.Username, username) }, since), nil
}

func (l *attemptLedger) count(match func(*entity.AttemptEntry) bool, since time.Time) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var n int64
	for i := range l.entries {
		e := &l.entries[i]
		if e.Outcome == entity.AttemptFailure && !e.OccurredAt.Before(since) && match(e) {
			n++
		}
	}

	return n
}
