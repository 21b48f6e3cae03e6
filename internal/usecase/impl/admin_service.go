package impl

import (
	"context"
	"fmt"
	"log/slog"

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

// adminService implements the AdminUsecase interface.
type adminService struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	lockout      usecase.LockoutUsecase
	reset        usecase.PasswordResetUsecase
	notifier     *accountNotifier
	logger       *slog.Logger
}

// AdminServiceParams holds dependencies for AdminService, injected by Fx.
type AdminServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	Lockout      usecase.LockoutUsecase
	Reset        usecase.PasswordResetUsecase
	Notifier     *accountNotifier
	Logger       *slog.Logger
}

// NewAdminService is the constructor for adminService.
func NewAdminService(params AdminServiceParams) usecase.AdminUsecase {
	return &adminService{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		lockout:      params.Lockout,
		reset:        params.Reset,
		notifier:     params.Notifier,
		logger:       params.Logger,
	}
}

func (srv *adminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *adminService) ActivateIdentity(ctx context.Context, actorID, identityID uuid.UUID, address string) error {
	return srv.setActive(ctx, actorID, identityID, true, address)
}

func (srv *adminService) DeactivateIdentity(ctx context.Context, actorID, identityID uuid.UUID, address string) error {
	return srv.setActive(ctx, actorID, identityID, false, address)
}

func (srv *adminService) IsLockedOut(ctx context.Context, actorID uuid.UUID, subject string) (bool, error) {
	if err := srv.requireAdministrator(ctx, actorID); err != nil {
		return false, err
	}

	locked, err := srv.lockout.IsLockedOut(ctx, subject)
	if err != nil {
		return false, internalError(ctx, srv.log(ctx), "Failed to check lockout", err)
	}

	return locked, nil
}

func (srv *adminService) ClearLockout(ctx context.Context, actorID uuid.UUID, subject string) error {
	if err := srv.requireAdministrator(ctx, actorID); err != nil {
		return err
	}

	if err := srv.lockout.Clear(ctx, subject); err != nil {
		return internalError(ctx, srv.log(ctx), "Failed to clear lockout", err)
	}

	srv.log(ctx).Info("Administrator cleared lockout", slog.String("actorID", actorID.String()), slog.String("subject", subject))

	return nil
}

func (srv *adminService) OverrideResetQuota(ctx context.Context, actorID, identityID uuid.UUID) error {
	if err := srv.requireAdministrator(ctx, actorID); err != nil {
		return err
	}
	if _, err := srv.loadTarget(ctx, identityID); err != nil {
		return err
	}

	return srv.reset.OverrideQuota(ctx, identityID)
}

// InitiatePasswordReset issues a reset on the identity's behalf. The quota still applies.
func (srv *adminService) InitiatePasswordReset(ctx context.Context, actorID, identityID uuid.UUID, address string) error {
	if err := srv.requireAdministrator(ctx, actorID); err != nil {
		return err
	}

	if _, err := srv.reset.RequestReset(ctx, identityID, address); err != nil {
		return err
	}

	srv.log(ctx).Info("Administrator initiated password reset",
		slog.String("actorID", actorID.String()),
		slog.String("identityID", identityID.String()),
	)

	return nil
}

func (srv *adminService) setActive(ctx context.Context, actorID, identityID uuid.UUID, active bool, address string) error {
	if err := srv.requireAdministrator(ctx, actorID); err != nil {
		return err
	}

	target, err := srv.loadTarget(ctx, identityID)
	if err != nil {
		return err
	}
	if target.IsActive == active {
		if active {
			return errors.WithStack(domainerrors.ErrAlreadyActive)
		}

		return errors.WithStack(domainerrors.ErrAlreadyInactive)
	}

	activityType, eventType, verb := entity.ActivityAccountDeactivated, service.AccountEventDeactivated, "deactivated"
	if active {
		activityType, eventType, verb = entity.ActivityAccountActivated, service.AccountEventActivated, "activated"
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.IdentityRepo().SetActive(ctx, identityID, active); err != nil {
			return errors.Wrap(err, "failed to update activation")
		}

		description := fmt.Sprintf("Account %s by administrator %s", verb, actorID)
		if err := repoFactory.ActivityRepo().Create(ctx, entity.NewActivity(identityID, activityType, address, description)); err != nil {
			return errors.Wrap(err, "failed to record activation change")
		}

		return nil
	})
	if err != nil {
		return translateWriteError(srv.log(ctx), "set_active", err)
	}

	target.IsActive = active
	srv.log(ctx).Info("Identity activation changed",
		slog.String("actorID", actorID.String()),
		slog.String("identityID", identityID.String()),
		slog.Bool("active", active),
	)

	srv.notifier.emailIdentity(ctx, target,
		"Account "+verb,
		fmt.Sprintf("Hello %s,\n\nYour account has been %s by an administrator.", target.Username, verb),
	)
	srv.notifier.publish(ctx, eventType, target, address)

	return nil
}

func (srv *adminService) requireAdministrator(ctx context.Context, actorID uuid.UUID) error {
	actor, err := srv.identityRepo.FindByID(ctx, actorID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return errors.WithStack(domainerrors.ErrForbidden)
	}
	if err != nil {
		return internalError(ctx, srv.log(ctx), "Failed to load acting identity", err)
	}
	if !actor.IsActive || !actor.IsAdministrator() {
		srv.log(ctx).Warn("Administrative action refused", slog.String("actorID", actorID.String()))

		return errors.WithStack(domainerrors.ErrForbidden)
	}

	return nil
}

func (srv *adminService) loadTarget(ctx context.Context, identityID uuid.UUID) (*entity.Identity, error) {
	target, err := srv.identityRepo.FindByID(ctx, identityID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, errors.WithStack(domainerrors.ErrIdentityNotFound)
	}
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Failed to load identity", err)
	}

	return target, nil
}
