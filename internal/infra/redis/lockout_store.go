package redis

import (
	"context"
	"strconv"
	"time"

	"rachel/config"
	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const defaultKeyPrefix = "rachel:lockout:"

// extendScript raises the stored lockout to ARGV[1] unless it is already later, and reports
// whether no lockout was in force at ARGV[2]. Values are unix milliseconds.
var extendScript = goredis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local fresh = 0
if current <= tonumber(ARGV[2]) then
  fresh = 1
end
if tonumber(ARGV[1]) > current then
  current = tonumber(ARGV[1])
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
end
return {current, fresh}
`)

// client is the subset of go-redis the store needs.
type client interface {
	goredis.Scripter
	Get(ctx context.Context, key string) *goredis.StringCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

type lockoutStore struct {
	client    client
	prefix    string
	retention time.Duration
}

// LockoutStoreParams holds dependencies for the Redis lockout store, injected by Fx.
type LockoutStoreParams struct {
	fx.In

	Client *goredis.Client
	Config *config.Config
}

// NewLockoutStore keeps lockout state in Redis so every instance sees the same lockouts.
// Entries outlive the lockout by the failure window so they can still bound the next count.
func NewLockoutStore(params LockoutStoreParams) repository.LockoutStore {
	prefix := defaultKeyPrefix
	if params.Config.Redis != nil && params.Config.Redis.KeyPrefix != "" {
		prefix = params.Config.Redis.KeyPrefix
	}

	return newLockoutStore(params.Client, prefix, params.Config.Lockout.FailureWindow)
}

func newLockoutStore(c client, prefix string, retention time.Duration) *lockoutStore {
	return &lockoutStore{client: c, prefix: prefix, retention: retention}
}

func (s *lockoutStore) Get(ctx context.Context, subject entity.LockoutSubject) (*entity.LockoutState, error) {
	raw, err := s.client.Get(ctx, s.key(subject)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lockout for %s", subject)
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed lockout value for %s", subject)
	}

	return &entity.LockoutState{Subject: subject, LockedUntil: time.UnixMilli(millis)}, nil
}

func (s *lockoutStore) Extend(
	ctx context.Context,
	subject entity.LockoutSubject,
	lockedUntil, now time.Time,
) (*entity.LockoutState, bool, error) {
	ttl := lockedUntil.Sub(now) + s.retention
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	values, err := extendScript.Run(ctx, s.client,
		[]string{s.key(subject)},
		lockedUntil.UnixMilli(), now.UnixMilli(), ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to extend lockout for %s", subject)
	}
	if len(values) != 2 {
		return nil, false, errors.Errorf("unexpected lockout script reply %v", values)
	}

	return &entity.LockoutState{Subject: subject, LockedUntil: time.UnixMilli(values[0])}, values[1] == 1, nil
}

func (s *lockoutStore) Clear(ctx context.Context, subject entity.LockoutSubject) error {
	if err := s.client.Del(ctx, s.key(subject)).Err(); err != nil {
		return errors.Wrapf(err, "failed to clear lockout for %s", subject)
	}

	return nil
}

func (s *lockoutStore) key(subject entity.LockoutSubject) string {
	return s.prefix + string(subject)
}
