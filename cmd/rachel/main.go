package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"rachel/config"
	"rachel/internal/delivery"
	deliveryhttp "rachel/internal/delivery/http"
	"rachel/internal/delivery/http/middleware"
	"rachel/internal/delivery/http/router/handler"
	"rachel/internal/infra/auth"
	"rachel/internal/infra/crypto"
	logs "rachel/internal/infra/log"
	"rachel/internal/infra/metrics"
	"rachel/internal/infra/notification"
	"rachel/internal/infra/persistence/memory"
	"rachel/internal/infra/persistence/postgres"
	"rachel/internal/infra/pubsub"
	"rachel/internal/infra/redis"
	"rachel/internal/usecase/impl"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %+v\n", err)
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		injectInfra(),
		injectRepo(cfg),
		injectLockoutStore(cfg),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		logs.New,
		context.Background,
	)
}

// injectRepo wires the persistence driver selected by storage.driver.
func injectRepo(cfg *config.Config) fx.Option {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return fx.Options(
			fx.Provide(
				memory.NewStore,
				memory.NewTransactionManager,
				memory.NewIdentityRepository,
				memory.NewProfileRepository,
				memory.NewActivityRepository,
				memory.NewNotificationRepository,
				memory.NewResetRequestRepository,
				memory.NewAttemptLedger,
			),
		)
	}

	return fx.Options(
		fx.Provide(
			postgres.New,
			crypto.NewAddressCipher,
			postgres.NewTransactionManager,
			postgres.NewIdentityRepository,
			postgres.NewProfileRepository,
			postgres.NewActivityRepository,
			postgres.NewNotificationRepository,
			postgres.NewResetRequestRepository,
			postgres.NewAttemptLedger,
		),
	)
}

// injectLockoutStore keeps lockouts in Redis when redis.url is set, so every instance shares them.
func injectLockoutStore(cfg *config.Config) fx.Option {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		return fx.Provide(memory.NewLockoutStore)
	}

	return fx.Provide(
		redis.New,
		redis.NewLockoutStore,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			notification.NewDispatcher,
			pubsub.NewEventPublisher,
			metrics.NewRegistry,
			metrics.NewAccountMetrics,
			fx.Annotate(
				newMetricsHandler,
				fx.ResultTags(`name:"metrics_handler"`),
			),
		),
	)
}

func newMetricsHandler(reg *prometheus.Registry) http.Handler {
	return metrics.Handler(reg)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAccountNotifier,
			impl.NewUniquenessValidator,
			impl.NewRegistrationService,
			impl.NewLockoutService,
			impl.NewPasswordResetService,
			impl.NewAuthService,
			impl.NewAdminService,
			impl.NewProfileService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewPasswordResetHandler,
			handler.NewProfileHandler,
			handler.NewAdminHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				deliveryhttp.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
