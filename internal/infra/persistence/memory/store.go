// Package memory is an in-process persistence driver. It enforces the same uniqueness
// rules as the PostgreSQL schema and gives transactions all-or-nothing semantics by
// working on a copy of the data that replaces the original only on commit.
package memory

import (
	"context"
	"maps"
	"sync"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Store holds every table of the driver behind one lock.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

type dataset struct {
	identities    map[uuid.UUID]*entity.Identity
	profiles      map[uuid.UUID]*entity.Profile
	activities    map[uuid.UUID][]*entity.Activity
	notifications map[uuid.UUID]*entity.Notification
	resets        map[uuid.UUID]*entity.ResetRequest

	// Lookup tables are seeded once and never written.
	languages  map[string]struct{}
	intentions map[string]struct{}
	categories map[string]struct{}
}

// NewStore creates an empty store with the lookup tables seeded.
func NewStore() *Store {
	data := &dataset{
		identities:    map[uuid.UUID]*entity.Identity{},
		profiles:      map[uuid.UUID]*entity.Profile{},
		activities:    map[uuid.UUID][]*entity.Activity{},
		notifications: map[uuid.UUID]*entity.Notification{},
		resets:        map[uuid.UUID]*entity.ResetRequest{},
		languages:     map[string]struct{}{},
		intentions:    map[string]struct{}{},
		categories:    map[string]struct{}{},
	}
	for _, l := range model.DefaultLanguages {
		data.languages[l.Code] = struct{}{}
	}
	for _, i := range model.DefaultIntentions {
		data.intentions[i.Code] = struct{}{}
	}
	for _, c := range model.DefaultCategories {
		data.categories[c.Code] = struct{}{}
	}

	return &Store{data: data}
}

// clone copies the table maps. Stored records are never mutated in place, so sharing them is safe.
func (d *dataset) clone() *dataset {
	activities := make(map[uuid.UUID][]*entity.Activity, len(d.activities))
	for id, list := range d.activities {
		activities[id] = append([]*entity.Activity(nil), list...)
	}

	return &dataset{
		identities:    maps.Clone(d.identities),
		profiles:      maps.Clone(d.profiles),
		activities:    activities,
		notifications: maps.Clone(d.notifications),
		resets:        maps.Clone(d.resets),
		languages:     d.languages,
		intentions:    d.intentions,
		categories:    d.categories,
	}
}

// session binds repositories either to the committed data or to an open transaction.
type session struct {
	store *Store
	tx    *dataset
}

func (s session) read(fn func(d *dataset) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return fn(s.store.data)
}

func (s session) write(fn func(d *dataset) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	work := s.store.data.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.store.data = work

	return nil
}

// transactionManager serialises transactions; each one commits by swapping in its copy.
type transactionManager struct {
	store *Store
}

// NewTransactionManager is the constructor for the in-memory transaction manager.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

// Execute runs fn against a private copy of the data and publishes the copy only if fn succeeds.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) (err error) {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "transaction not started")
	}

	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	work := tm.store.data.clone()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("transaction panicked: %v", r)
		}
	}()

	if err := fn(&repositoryFactory{sess: session{store: tm.store, tx: work}}); err != nil {
		return err
	}

	tm.store.data = work

	return nil
}

type repositoryFactory struct {
	sess session
}

func (f *repositoryFactory) IdentityRepo() repository.IdentityRepository {
	return &identityRepository{sess: f.sess}
}

func (f *repositoryFactory) ProfileRepo() repository.ProfileRepository {
	return &profileRepository{sess: f.sess}
}

func (f *repositoryFactory) ActivityRepo() repository.ActivityRepository {
	return &activityRepository{sess: f.sess}
}

func (f *repositoryFactory) NotificationRepo() repository.NotificationRepository {
	return &notificationRepository{sess: f.sess}
}

func (f *repositoryFactory) ResetRequestRepo() repository.ResetRequestRepository {
	return &resetRequestRepository{sess: f.sess}
}
