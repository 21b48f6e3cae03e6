package impl

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failTimes(t *testing.T, env *testEnv, n int, usernameFor func(i int) string, address string) *entity.LockoutDecision {
	t.Helper()

	var decision *entity.LockoutDecision
	for i := range n {
		var err error
		decision, err = env.lockout.OnFailure(context.Background(), usernameFor(i), address)
		require.NoError(t, err)
	}

	return decision
}

func sameUser(name string) func(int) string {
	return func(int) string { return name }
}

func TestLockoutService_ThresholdMinusOneDoesNotLock(t *testing.T) {
	env := newTestEnv(t)

	decision := failTimes(t, env, env.cfg.Lockout.Threshold-1, sameUser("alice"), "203.0.113.5")

	assert.False(t, decision.Locked)
	assert.EqualValues(t, env.cfg.Lockout.Threshold-1, decision.FailureCount)
	for _, subject := range []string{"alice", "203.0.113.5"} {
		locked, err := env.lockout.IsLockedOut(context.Background(), subject)
		require.NoError(t, err)
		assert.False(t, locked, subject)
	}
}

func TestLockoutService_ThresholdLocksAddressAndUsername(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerActive(t, adminInput("root", "+972500000900", "900"))

	decision := failTimes(t, env, env.cfg.Lockout.Threshold, sameUser("alice"), "203.0.113.5")

	assert.True(t, decision.Locked)
	assert.True(t, decision.Alerted)
	assert.Equal(t, env.clock.Now().Add(env.cfg.Lockout.Duration), decision.LockedUntil)
	for _, subject := range []string{"alice", "203.0.113.5"} {
		locked, err := env.lockout.IsLockedOut(context.Background(), subject)
		require.NoError(t, err)
		assert.True(t, locked, subject)
	}

	inbox, err := env.inbox.ListByRecipient(context.Background(), admin.ID, false)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, entity.NotificationAlert, inbox[0].Type)
	assert.Contains(t, inbox[0].Message, "203.0.113.5")
	assert.Len(t, env.publisher.ofType(service.AccountEventLockout), 1)
}

func TestLockoutService_CountsAcrossUsernamesFromOneAddress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	decision := failTimes(t, env, env.cfg.Lockout.Threshold, func(i int) string { return fmt.Sprintf("user%d", i) }, "198.51.100.7")

	assert.True(t, decision.Locked)
	locked, err := env.lockout.IsLockedOut(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, locked)

	// Only the username that tripped the threshold is locked by name.
	locked, err = env.lockout.IsLockedOut(ctx, fmt.Sprintf("user%d", env.cfg.Lockout.Threshold-1))
	require.NoError(t, err)
	assert.True(t, locked)
	locked, err = env.lockout.IsLockedOut(ctx, "user0")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestLockoutService_FailuresWhileLockedAreNotCountedOrRealerted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	failTimes(t, env, env.cfg.Lockout.Threshold, sameUser("alice"), "203.0.113.5")
	lockedUntil := env.clock.Now().Add(env.cfg.Lockout.Duration)

	env.clock.Advance(time.Minute)
	decision, err := env.lockout.OnFailure(ctx, "alice", "203.0.113.5")
	require.NoError(t, err)

	assert.True(t, decision.Locked)
	assert.False(t, decision.Alerted)
	assert.Equal(t, lockedUntil, decision.LockedUntil)
	assert.Len(t, env.publisher.ofType(service.AccountEventLockout), 1)
}

func TestLockoutService_ExpiresWithoutUnlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	failTimes(t, env, env.cfg.Lockout.Threshold, sameUser("alice"), "203.0.113.5")

	env.clock.Advance(env.cfg.Lockout.Duration - time.Second)
	locked, err := env.lockout.IsLockedOut(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)

	env.clock.Advance(time.Second)
	locked, err = env.lockout.IsLockedOut(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, locked)

	// Failures from before the lockout ended no longer count.
	decision, err := env.lockout.OnFailure(ctx, "alice", "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, decision.Locked)
	assert.EqualValues(t, 1, decision.FailureCount)
}

func TestLockoutService_FailuresOutsideWindowAreIgnored(t *testing.T) {
	env := newTestEnv(t)
	failTimes(t, env, env.cfg.Lockout.Threshold-1, sameUser("alice"), "203.0.113.5")

	env.clock.Advance(env.cfg.Lockout.FailureWindow + time.Second)
	decision, err := env.lockout.OnFailure(context.Background(), "alice", "203.0.113.5")
	require.NoError(t, err)

	assert.False(t, decision.Locked)
	assert.EqualValues(t, 1, decision.FailureCount)
}

func TestLockoutService_UnknownAddressIsItsOwnBucket(t *testing.T) {
	env := newTestEnv(t)

	decision := failTimes(t, env, env.cfg.Lockout.Threshold, func(i int) string { return fmt.Sprintf("user%d", i) }, "")

	assert.True(t, decision.Locked)
	locked, err := env.lockout.IsLockedOut(context.Background(), entity.UnknownAddress)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestLockoutService_SuccessDoesNotResetCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	failTimes(t, env, env.cfg.Lockout.Threshold-1, sameUser("alice"), "203.0.113.5")

	require.NoError(t, env.lockout.RecordAttempt(ctx, "bob", "203.0.113.5", true))
	require.NoError(t, env.lockout.RecordAttempt(ctx, "alice", "203.0.113.5", false))

	locked, err := env.lockout.IsLockedOut(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestLockoutService_Clear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	failTimes(t, env, env.cfg.Lockout.Threshold, sameUser("alice"), "203.0.113.5")

	require.NoError(t, env.lockout.Clear(ctx, "203.0.113.5"))
	require.NoError(t, env.lockout.Clear(ctx, "alice"))

	blocked, err := env.lockout.IsAttemptBlocked(ctx, "alice", "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLockoutService_ConcurrentFailuresAlertOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	failTimes(t, env, env.cfg.Lockout.Threshold-1, sameUser("alice"), "203.0.113.5")

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.lockout.OnFailure(ctx, "alice", "203.0.113.5")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	locked, err := env.lockout.IsLockedOut(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Len(t, env.publisher.ofType(service.AccountEventLockout), 1)
}

func TestLockoutService_UsernameProbedFromManyAddressesIsLocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var decision *entity.LockoutDecision
	for i := range env.cfg.Lockout.Threshold {
		var err error
		decision, err = env.lockout.OnFailure(ctx, "alice", fmt.Sprintf("198.51.100.%d", i+1))
		require.NoError(t, err)
	}

	assert.True(t, decision.Locked)
	assert.False(t, decision.Alerted)
	assert.EqualValues(t, 1, decision.FailureCount)
	assert.Equal(t, env.clock.Now().Add(env.cfg.Lockout.Duration), decision.LockedUntil)

	locked, err := env.lockout.IsLockedOut(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)

	// No single address crossed the threshold.
	locked, err = env.lockout.IsLockedOut(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Empty(t, env.publisher.ofType(service.AccountEventLockout))
}

func TestLockoutService_LockedAddressDoesNotBlockOtherUsernames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	failTimes(t, env, env.cfg.Lockout.Threshold, sameUser("ghost"), "203.0.113.9")

	blocked, err := env.lockout.IsAttemptBlocked(ctx, "dana", "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, blocked)

	blocked, err = env.lockout.IsAttemptBlocked(ctx, "ghost", "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, blocked)
}
