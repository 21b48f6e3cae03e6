package impl

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationService_Register_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.registerActive(t, adminInput("root", "+972500000900", "900"))

	identity, err := env.registration.Register(ctx, civilianInput("Dana", "+972500000001", "100"))
	require.NoError(t, err)

	assert.False(t, identity.IsActive)
	assert.Equal(t, entity.Roles{entity.RoleCivilian}, identity.Roles)
	assert.Equal(t, "dana@example.com", identity.Email)
	assert.Equal(t, "hashed:Secret123", identity.PasswordHash)

	profile, err := env.profiles.FindByIdentityID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProfileKindCivilian, profile.Kind)
	assert.ElementsMatch(t, []string{"he", "en"}, profile.Common.Languages)
	assert.Equal(t, []string{"shelter"}, profile.Civilian.Intentions)

	activities, err := env.activities.ListByIdentity(ctx, identity.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, entity.ActivityAccountCreation, activities[0].Type)
	assert.Equal(t, "10.0.0.1", activities[0].SourceAddress)

	inbox, err := env.inbox.ListByRecipient(ctx, admin.ID, false)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "New User Registration", inbox[0].Title)
	assert.Contains(t, inbox[0].Message, "Dana")

	reviews := env.dispatcher.withSubject("New User Registration")
	require.Len(t, reviews, 1)
	assert.Equal(t, []string{admin.Email}, reviews[0].Recipients)

	welcomes := env.dispatcher.withSubject("Welcome")
	require.Len(t, welcomes, 2)
	assert.Equal(t, []string{"dana@example.com"}, welcomes[1].Recipients)

	events := env.publisher.ofType(service.AccountEventRegistered)
	require.Len(t, events, 2)
	assert.Equal(t, identity.ID.String(), events[1].IdentityID)
	assert.Equal(t, "civilian", events[1].Role)
}

func TestRegistrationService_Register_DispatchFailureKeepsCommittedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerActive(t, adminInput("root", "+972500000900", "900"))
	env.dispatcher.failWith(errors.New("smtp down"))

	identity, err := env.registration.Register(ctx, civilianInput("dana", "+972500000001", "100"))
	require.NoError(t, err)
	require.NotNil(t, identity)

	stored, err := env.identities.FindByUsername(ctx, "dana")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, stored.ID)

	profile, err := env.profiles.FindByIdentityID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProfileKindCivilian, profile.Kind)

	activities, err := env.activities.ListByIdentity(ctx, identity.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, entity.ActivityAccountCreation, activities[0].Type)

	assert.NotEmpty(t, env.dispatcher.withSubject("Welcome"))
}

func TestRegistrationService_Register_AdministratorIsNotToldAboutThemselves(t *testing.T) {
	env := newTestEnv(t)

	admin := env.registerActive(t, adminInput("root", "+972500000900", "900"))

	inbox, err := env.inbox.ListByRecipient(context.Background(), admin.ID, false)
	require.NoError(t, err)
	assert.Empty(t, inbox)
	assert.Empty(t, env.dispatcher.withSubject("New User Registration"))
}

func TestRegistrationService_Register_ReportsEveryConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.registration.Register(ctx, civilianInput("dana", "+972500000001", "100"))
	require.NoError(t, err)

	_, err = env.registration.Register(ctx, civilianInput("dana", "+972500000001", "100"))

	var conflict *domainerrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"email", "identification_number", "phone_number", "username"}, conflict.Fields.Fields())
}

func TestRegistrationService_Register_IdentificationIsSharedAcrossRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.registration.Register(ctx, civilianInput("dana", "+972500000001", "100"))
	require.NoError(t, err)

	_, err = env.registration.Register(ctx, providerInput("noa", "+972500000002", "100"))

	var conflict *domainerrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"identification_number"}, conflict.Fields.Fields())

	// Same number under another ID type is a different document.
	input := providerInput("noa", "+972500000002", "100")
	input.Profile.IDType = entity.IDTypePassport
	_, err = env.registration.Register(ctx, input)
	require.NoError(t, err)
}

func TestRegistrationService_Register_TermsNotAccepted(t *testing.T) {
	env := newTestEnv(t)
	input := civilianInput("dana", "+972500000001", "100")
	input.Profile.TermsAccepted = false

	_, err := env.registration.Register(context.Background(), input)

	require.ErrorIs(t, err, domainerrors.ErrTermsNotAccepted)
	assert.True(t, domainerrors.IsPolicyDenied(err))
	_, err = env.identities.FindByUsername(context.Background(), "dana")
	assert.ErrorIs(t, err, repository.ErrIdentityNotFound)
}

func TestRegistrationService_Register_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	input := civilianInput("dana", "+972500000001", "100")
	input.Password = "short"
	input.Profile.Languages = nil
	input.Civilian.Gender = "unknown"

	_, err := env.registration.Register(context.Background(), input)

	var validation *domainerrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"gender", "languages", "password"}, validation.Fields.Fields())
	assert.Equal(t, "password is too short", validation.Fields["password"])
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestRegistrationService_Register_RejectsPastActiveUntil(t *testing.T) {
	env := newTestEnv(t)
	input := civilianInput("dana", "+972500000001", "100")
	past := env.clock.Now().Add(-time.Hour)
	input.Profile.ActiveUntil = &past

	_, err := env.registration.Register(context.Background(), input)

	var validation *domainerrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "active_until")
}

func TestRegistrationService_Register_UnknownRelationRollsBackEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := civilianInput("dana", "+972500000001", "100")
	input.Profile.Languages = []string{"he", "xx"}

	_, err := env.registration.Register(ctx, input)

	var validation *domainerrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "relations")

	_, err = env.identities.FindByUsername(ctx, "dana")
	assert.ErrorIs(t, err, repository.ErrIdentityNotFound)
	exists, err := env.profiles.ExistsByPhone(ctx, "+972500000001", nil)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, env.dispatcher.withSubject("Welcome"))
	assert.Empty(t, env.publisher.ofType(service.AccountEventRegistered))
}

func TestRegistrationService_Register_ConcurrentSameUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			input := civilianInput("dana", fmt.Sprintf("+97250000010%d", i), fmt.Sprintf("20%d", i))
			_, results[i] = env.registration.Register(ctx, input)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++

			continue
		}
		var conflict *domainerrors.ConflictError
		require.True(t, errors.As(err, &conflict), "unexpected error: %v", err)
		assert.Contains(t, conflict.Fields, "username")
	}
	assert.Equal(t, 1, succeeded)

	civilians, err := env.identities.ListByRole(ctx, entity.RoleCivilian)
	require.NoError(t, err)
	assert.Len(t, civilians, 1)
}
