package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"
	"rachel/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	identityRepo repository.IdentityRepository
	activityRepo repository.ActivityRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	lockout      usecase.LockoutUsecase
	notifier     *accountNotifier
	logger       *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	IdentityRepo repository.IdentityRepository
	ActivityRepo repository.ActivityRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Lockout      usecase.LockoutUsecase
	Notifier     *accountNotifier
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		identityRepo: params.IdentityRepo,
		activityRepo: params.ActivityRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		lockout:      params.Lockout,
		notifier:     params.Notifier,
		logger:       params.Logger,
	}
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login verifies the credentials unless the username is locked out.
// Unknown usernames and wrong passwords fail identically and both count toward a lockout.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	username := strings.TrimSpace(input.Username)
	address := entity.NormalizeAddress(input.SourceAddress)

	blocked, err := srv.lockout.IsAttemptBlocked(ctx, username, address)
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Failed to check lockout", err)
	}
	if blocked {
		if err := srv.lockout.RecordBlocked(ctx, username, address); err != nil {
			srv.log(ctx).Error("Failed to record blocked attempt", slog.Any("error", err))
		}
		srv.log(ctx).Info("Login refused: locked out", slog.String("username", username), slog.String("address", address))

		return nil, errors.WithStack(domainerrors.ErrAccountLocked)
	}

	identity, err := srv.identityRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, internalError(ctx, srv.log(ctx), "Failed to load identity", err)
	}
	if identity == nil {
		srv.hasher.Check(input.Password, srv.decoy())

		return nil, srv.failLogin(ctx, nil, username, address)
	}
	if !srv.hasher.Check(input.Password, identity.PasswordHash) {
		return nil, srv.failLogin(ctx, identity, username, address)
	}

	if !identity.IsActive {
		srv.log(ctx).Info("Login refused: identity inactive", slog.String("identityID", identity.ID.String()))

		return nil, errors.WithStack(domainerrors.ErrAccountInactive)
	}

	if err := srv.lockout.OnSuccess(ctx, username, address); err != nil {
		srv.log(ctx).Error("Failed to record successful attempt", slog.Any("error", err))
	}
	srv.recordActivity(ctx, identity, entity.ActivityLogin, address, "Logged in")
	srv.notifier.metrics.LoginSucceeded()

	token, expiresAt, err := srv.tokenService.GenerateAccessToken(identity.ID, identity.Roles.ToStrings())
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Failed to generate access token", err)
	}

	srv.log(ctx).Info("Login succeeded", slog.String("identityID", identity.ID.String()))

	return &usecase.LoginOutput{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Identity:    identity,
	}, nil
}

// decoy is a hash of a random password, compared against for unknown usernames so they cost the same as a wrong password.
func (srv *authService) decoy() string {
	srv.decoyOnce.Do(func() {
		hash, err := srv.hasher.Hash(uuid.NewString())
		if err != nil {
			srv.logger.Error("Failed to build decoy hash", slog.Any("error", err))

			return
		}
		srv.decoyHash = hash
	})

	return srv.decoyHash
}

func (srv *authService) failLogin(ctx context.Context, identity *entity.Identity, username, address string) error {
	decision, err := srv.lockout.OnFailure(ctx, username, address)
	if err != nil {
		return internalError(ctx, srv.log(ctx), "Failed to record failed attempt", err)
	}
	if identity != nil {
		srv.recordActivity(ctx, identity, entity.ActivityLoginFailed, address, "Failed login attempt")
	}

	srv.log(ctx).Info("Login failed",
		slog.String("username", username),
		slog.String("address", address),
		slog.Int64("failures", decision.FailureCount),
		slog.Bool("locked", decision.Locked),
	)

	return errors.WithStack(domainerrors.ErrInvalidCredentials)
}

func (srv *authService) recordActivity(
	ctx context.Context,
	identity *entity.Identity,
	activityType entity.ActivityType,
	address, description string,
) {
	if err := srv.activityRepo.Create(ctx, entity.NewActivity(identity.ID, activityType, address, description)); err != nil {
		srv.log(ctx).Warn("Failed to record activity", slog.String("type", string(activityType)), slog.Any("error", err))
	}
}
