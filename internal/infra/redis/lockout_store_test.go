package redis

import (
	"context"
	"testing"
	"time"

	"rachel/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*lockoutStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return newLockoutStore(client, "test:", time.Hour), mr
}

func TestLockoutStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	state, err := store.Get(context.Background(), entity.AddressSubject("203.0.113.5"))
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestLockoutStoreExtend(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	subject := entity.AddressSubject("203.0.113.5")
	now := time.UnixMilli(1_700_000_000_000)

	state, fresh, err := store.Extend(ctx, subject, now.Add(5*time.Minute), now)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.True(t, state.LockedUntil.Equal(now.Add(5*time.Minute)))
	assert.True(t, mr.Exists("test:addr:203.0.113.5"))
	assert.Equal(t, 5*time.Minute+time.Hour, mr.TTL("test:addr:203.0.113.5"))

	// A concurrent caller that also reached the threshold sees the lockout already in force.
	state, fresh, err = store.Extend(ctx, subject, now.Add(5*time.Minute), now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.True(t, state.LockedUntil.Equal(now.Add(5*time.Minute)))

	// An earlier deadline never shortens the lockout.
	state, _, err = store.Extend(ctx, subject, now.Add(time.Minute), now.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, state.LockedUntil.Equal(now.Add(5*time.Minute)))

	got, err := store.Get(ctx, subject)
	require.NoError(t, err)
	assert.True(t, got.LockedUntil.Equal(now.Add(5*time.Minute)))
	assert.Equal(t, subject, got.Subject)
}

func TestLockoutStoreExtendAfterExpiryIsFresh(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	subject := entity.UsernameSubject("alice")
	now := time.UnixMilli(1_700_000_000_000)

	_, _, err := store.Extend(ctx, subject, now.Add(5*time.Minute), now)
	require.NoError(t, err)

	later := now.Add(10 * time.Minute)
	state, fresh, err := store.Extend(ctx, subject, later.Add(5*time.Minute), later)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.True(t, state.LockedUntil.Equal(later.Add(5*time.Minute)))
}

func TestLockoutStoreClear(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	subject := entity.UsernameSubject("Alice")
	now := time.Now()

	_, _, err := store.Extend(ctx, subject, now.Add(time.Minute), now)
	require.NoError(t, err)
	require.True(t, mr.Exists("test:user:alice"))

	require.NoError(t, store.Clear(ctx, subject))
	assert.False(t, mr.Exists("test:user:alice"))

	state, err := store.Get(ctx, subject)
	require.NoError(t, err)
	assert.Nil(t, state)
}
