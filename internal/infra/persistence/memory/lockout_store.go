package memory

import (
	"context"
	"sync"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
)

type lockoutStore struct {
	mu     sync.Mutex
	states map[entity.LockoutSubject]time.Time
}

// NewLockoutStore keeps lockout state in process memory. It suits a single instance only.
func NewLockoutStore() repository.LockoutStore {
	return &lockoutStore{states: map[entity.LockoutSubject]time.Time{}}
}

func (s *lockoutStore) Get(_ context.Context, subject entity.LockoutSubject) (*entity.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.states[subject]
	if !ok {
		return nil, nil
	}

	return &entity.LockoutState{Subject: subject, LockedUntil: until}, nil
}

func (s *lockoutStore) Extend(
	_ context.Context,
	subject entity.LockoutSubject,
	lockedUntil, now time.Time,
) (*entity.LockoutState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.states[subject]
	fresh := !ok || !now.Before(current)
	if !ok || lockedUntil.After(current) {
		current = lockedUntil
		s.states[subject] = current
	}

	return &entity.LockoutState{Subject: subject, LockedUntil: current}, fresh, nil
}

func (s *lockoutStore) Clear(_ context.Context, subject entity.LockoutSubject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, subject)

	return nil
}
