package impl

import (
	"context"
	"strings"
	"testing"
	"time"

	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/service"
	"rachel/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetService_RequestReset_EmailsLink(t *testing.T) {
	env := newTestEnv(t)
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))

	token, err := env.reset.RequestReset(context.Background(), identity.ID, "10.0.0.3")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	mails := env.dispatcher.withSubject("Password Reset Request")
	require.Len(t, mails, 1)
	assert.Equal(t, []string{"dana@example.com"}, mails[0].Recipients)
	assert.Contains(t, mails[0].Body, "https://rachel.test/reset/"+identity.ExternalRef()+"/"+token)
	assert.Contains(t, mails[0].Body, "It expires in 30 minutes.")
}

func TestPasswordResetService_CompleteReset_TokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))
	token, err := env.reset.RequestReset(ctx, identity.ID, "")
	require.NoError(t, err)

	require.NoError(t, env.reset.CompleteReset(ctx, identity.ID, token, "NewSecret1", ""))
	err = env.reset.CompleteReset(ctx, identity.ID, token, "OtherSecret2", "")
	require.ErrorIs(t, err, domainerrors.ErrResetTokenInvalid)

	_, err = env.auth.Login(ctx, &usecase.LoginInput{Username: "dana", Password: "NewSecret1"})
	require.NoError(t, err)
	assert.Len(t, env.dispatcher.withSubject("Your password was changed"), 1)
	assert.Len(t, env.publisher.ofType(service.AccountEventResetComplete), 1)
}

func TestPasswordResetService_CompleteReset_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))
	token, err := env.reset.RequestReset(ctx, identity.ID, "")
	require.NoError(t, err)

	env.clock.Advance(env.cfg.Reset.TokenTTL)

	err = env.reset.CompleteReset(ctx, identity.ID, token, "NewSecret1", "")
	assert.ErrorIs(t, err, domainerrors.ErrResetTokenInvalid)
}

func TestPasswordResetService_CompleteReset_SupersededToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))
	first, err := env.reset.RequestReset(ctx, identity.ID, "")
	require.NoError(t, err)
	second, err := env.reset.RequestReset(ctx, identity.ID, "")
	require.NoError(t, err)

	require.ErrorIs(t, env.reset.CompleteReset(ctx, identity.ID, first, "NewSecret1", ""), domainerrors.ErrResetTokenInvalid)
	require.NoError(t, env.reset.CompleteReset(ctx, identity.ID, second, "NewSecret1", ""))
}

func TestPasswordResetService_CompleteReset_WeakPasswordKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))
	token, err := env.reset.RequestReset(ctx, identity.ID, "")
	require.NoError(t, err)

	err = env.reset.CompleteReset(ctx, identity.ID, token, "weak", "")
	var validation *domainerrors.ValidationError
	require.ErrorAs(t, err, &validation)

	require.NoError(t, env.reset.CompleteReset(ctx, identity.ID, token, "NewSecret1", ""))
}

func TestPasswordResetService_CompleteReset_WithoutRequest(t *testing.T) {
	env := newTestEnv(t)
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))

	err := env.reset.CompleteReset(context.Background(), identity.ID, "anything", "NewSecret1", "")

	assert.ErrorIs(t, err, domainerrors.ErrResetTokenInvalid)
}

func TestPasswordResetService_Quota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))

	for range env.cfg.Reset.MaxRequests {
		_, err := env.reset.RequestReset(ctx, identity.ID, "")
		require.NoError(t, err)
	}

	allowed, err := env.reset.CanRequest(ctx, identity.ID)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Time does not restore the quota.
	env.clock.Advance(30 * 24 * time.Hour)
	_, err = env.reset.RequestReset(ctx, identity.ID, "")
	require.ErrorIs(t, err, domainerrors.ErrResetQuotaExhausted)
	assert.True(t, domainerrors.IsPolicyDenied(err))

	require.NoError(t, env.reset.OverrideQuota(ctx, identity.ID))
	allowed, err = env.reset.CanRequest(ctx, identity.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestPasswordResetService_CompletionKeepsCounterByDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.registerActive(t, civilianInput("dana", "+972500000001", "100"))

	var token string
	for range env.cfg.Reset.MaxRequests {
		var err error
		token, err = env.reset.RequestReset(ctx, identity.ID, "")
		require.NoError(t, err)
	}
	require.NoError(t, env.reset.CompleteReset(ctx, identity.ID, token, "NewSecret1", ""))

	allowed, err := env.reset.CanRequest(ctx, identity.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPasswordResetService_RequestResetByEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerActive(t, civilianInput("dana", "+972500000001", "100"))

	require.NoError(t, env.reset.RequestResetByEmail(ctx, "  DANA@example.com ", ""))
	require.NoError(t, env.reset.RequestResetByEmail(ctx, "nobody@example.com", ""))

	mails := env.dispatcher.withSubject("Password Reset Request")
	require.Len(t, mails, 1)
	assert.True(t, strings.HasPrefix(mails[0].Recipients[0], "dana@"))
}

func TestPasswordResetService_RequestReset_UnknownIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reset.RequestReset(context.Background(), uuid.New(), "")

	assert.ErrorIs(t, err, domainerrors.ErrIdentityNotFound)
}
