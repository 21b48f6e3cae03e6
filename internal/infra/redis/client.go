// Package redis provides the Redis client and the Redis-backed lockout store.
package redis

import (
	"context"
	"log/slog"

	"rachel/config"
	"rachel/internal/domain/lifecycle"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the Redis client. The connection is checked when the application starts.
func New(params Params) (*goredis.Client, error) {
	if params.Config.Redis == nil || params.Config.Redis.URL == "" {
		return nil, errors.New("redis lockout store selected but redis.url is empty")
	}

	opts, err := goredis.ParseURL(params.Config.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis URL")
	}
	client := goredis.NewClient(opts)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping redis")
			}
			params.Logger.Info("Redis connected", slog.String("addr", opts.Addr))

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
