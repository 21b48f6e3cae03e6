package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCivilianProfile(identityID uuid.UUID, phone, idNumber string) *entity.Profile {
	return &entity.Profile{
		IdentityID: identityID,
		Kind:       entity.ProfileKindCivilian,
		Common: entity.ProfileCommon{
			IdentificationNumber: idNumber,
			IDType:               entity.IDTypeIsraeliID,
			CountryOfIssue:       "IL",
			Languages:            []string{"he"},
			PhoneNumber:          phone,
			TermsAccepted:        true,
		},
		Civilian: &entity.CivilianDetails{Gender: entity.GenderFemale, Intentions: []string{"shelter"}},
	}
}

func TestTransactionCommitsEveryWrite(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	identity := &entity.Identity{Username: "alice", Email: "alice@example.com", Roles: entity.Roles{entity.RoleCivilian}}
	err := NewTransactionManager(store).Execute(ctx, func(f repository.RepositoryFactory) error {
		if err := f.IdentityRepo().Create(ctx, identity); err != nil {
			return err
		}
		profile := newCivilianProfile(identity.ID, "+972500000001", "123456789")
		if err := f.ProfileRepo().Create(ctx, profile); err != nil {
			return err
		}

		return f.ProfileRepo().SetRelations(ctx, identity.ID, profile.Relations())
	})
	require.NoError(t, err)

	profile, err := NewProfileRepository(store).FindByIdentityID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"he"}, profile.Common.Languages)
	assert.Equal(t, []string{"shelter"}, profile.Civilian.Intentions)
}

func TestTransactionRollsBackOnUnknownReference(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	identity := &entity.Identity{Username: "bob", Email: "bob@example.com", Roles: entity.Roles{entity.RoleCivilian}}
	err := NewTransactionManager(store).Execute(ctx, func(f repository.RepositoryFactory) error {
		require.NoError(t, f.IdentityRepo().Create(ctx, identity))
		profile := newCivilianProfile(identity.ID, "+972500000002", "223456789")
		require.NoError(t, f.ProfileRepo().Create(ctx, profile))

		return f.ProfileRepo().SetRelations(ctx, identity.ID, entity.ProfileRelations{Languages: []string{"xx"}})
	})
	require.ErrorIs(t, err, repository.ErrUnknownReference)

	_, err = NewIdentityRepository(store).FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrIdentityNotFound)
	exists, err := NewProfileRepository(store).ExistsByPhone(ctx, "+972500000002", nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := NewTransactionManager(store).Execute(ctx, func(f repository.RepositoryFactory) error {
		require.NoError(t, f.IdentityRepo().Create(ctx, &entity.Identity{Username: "carol", Email: "carol@example.com"}))
		panic("boom")
	})
	require.Error(t, err)

	exists, err := NewIdentityRepository(store).ExistsByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUniquenessIsEnforcedAcrossProfileKinds(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	identities := NewIdentityRepository(store)
	profiles := NewProfileRepository(store)

	civilian := &entity.Identity{Username: "c1", Email: "c1@example.com"}
	require.NoError(t, identities.Create(ctx, civilian))
	require.NoError(t, profiles.Create(ctx, newCivilianProfile(civilian.ID, "+972500000003", "323456789")))

	provider := &entity.Identity{Username: "p1", Email: "p1@example.com"}
	require.NoError(t, identities.Create(ctx, provider))
	err := profiles.Create(ctx, &entity.Profile{
		IdentityID: provider.ID,
		Kind:       entity.ProfileKindSupportProvider,
		Common: entity.ProfileCommon{
			IdentificationNumber: "999",
			IDType:               entity.IDTypePassport,
			CountryOfIssue:       "US",
			PhoneNumber:          "+972500000003",
		},
		SupportProvider: &entity.SupportProviderDetails{Categories: []string{"food"}},
	})

	var integrity *domainerrors.IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, "phone_number", integrity.Field)
	assert.Equal(t, "uq_profiles_phone_number", integrity.Constraint)

	err = identities.Create(ctx, &entity.Identity{Username: "c1", Email: "other@example.com"})
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, "username", integrity.Field)
}

func TestResetIssueStopsAtQuota(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := NewResetRequestRepository(store)
	id := uuid.New()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	issued, refused := 0, 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Issue(ctx, repository.IssueResetParams{
				IdentityID: id, TokenHash: "h", IssuedAt: now, ExpiresAt: now.Add(time.Minute), MaxRequests: 5,
			})
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, repository.ErrResetQuotaReached) {
				refused++
			} else if err == nil {
				issued++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, issued)
	assert.Equal(t, 5, refused)

	record, err := repo.FindByIdentityID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, record.RequestCount)
}

func TestConsumeTokenOnlyOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := NewResetRequestRepository(store)
	id := uuid.New()
	now := time.Now()

	_, err := repo.Issue(ctx, repository.IssueResetParams{
		IdentityID: id, TokenHash: "first", IssuedAt: now, ExpiresAt: now.Add(time.Minute), MaxRequests: 5,
	})
	require.NoError(t, err)
	_, err = repo.Issue(ctx, repository.IssueResetParams{
		IdentityID: id, TokenHash: "second", IssuedAt: now, ExpiresAt: now.Add(time.Minute), MaxRequests: 5,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.ConsumeToken(ctx, id, "first"), repository.ErrResetTokenConsumed)
	require.NoError(t, repo.ConsumeToken(ctx, id, "second"))
	assert.ErrorIs(t, repo.ConsumeToken(ctx, id, "second"), repository.ErrResetTokenConsumed)
}

func TestAttemptLedgerCountsFailuresOnly(t *testing.T) {
	ctx := context.Background()
	ledger := NewAttemptLedger()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	entries := []entity.AttemptEntry{
		{SourceAddress: "203.0.113.5", Username: "alice", Outcome: entity.AttemptFailure, OccurredAt: base},
		{SourceAddress: "203.0.113.5", Username: "bob", Outcome: entity.AttemptFailure, OccurredAt: base.Add(time.Minute)},
		{SourceAddress: "203.0.113.5", Username: "alice", Outcome: entity.AttemptLocked, OccurredAt: base.Add(2 * time.Minute)},
		{SourceAddress: "203.0.113.5", Username: "alice", Outcome: entity.AttemptSuccess, OccurredAt: base.Add(3 * time.Minute)},
		{SourceAddress: "198.51.100.7", Username: "alice", Outcome: entity.AttemptFailure, OccurredAt: base.Add(4 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, ledger.Append(ctx, &entries[i]))
	}

	n, err := ledger.CountFailuresByAddress(ctx, "203.0.113.5", base)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = ledger.CountFailuresByAddress(ctx, "203.0.113.5", base.Add(30*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = ledger.CountFailuresByUsername(ctx, "ALICE", base)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestLockoutStoreExtendNeverShortens(t *testing.T) {
	ctx := context.Background()
	store := NewLockoutStore()
	subject := entity.AddressSubject("203.0.113.5")
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	state, err := store.Get(ctx, subject)
	require.NoError(t, err)
	assert.Nil(t, state)

	state, fresh, err := store.Extend(ctx, subject, now.Add(5*time.Minute), now)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, now.Add(5*time.Minute), state.LockedUntil)

	state, fresh, err = store.Extend(ctx, subject, now.Add(time.Minute), now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, now.Add(5*time.Minute), state.LockedUntil)

	state, fresh, err = store.Extend(ctx, subject, now.Add(20*time.Minute), now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, now.Add(20*time.Minute), state.LockedUntil)

	require.NoError(t, store.Clear(ctx, subject))
	state, err = store.Get(ctx, subject)
	require.NoError(t, err)
	assert.Nil(t, state)
}
