// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"
	"rachel/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// registrationService implements the RegistrationUsecase interface.
type registrationService struct {
	txManager repository.TransactionManager
	validator usecase.UniquenessValidator
	hasher    service.PasswordHasher
	notifier  *accountNotifier
	now       func() time.Time
	logger    *slog.Logger
}

// RegistrationServiceParams holds dependencies for RegistrationService, injected by Fx.
type RegistrationServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Validator usecase.UniquenessValidator
	Hasher    service.PasswordHasher
	Notifier  *accountNotifier
	Clock     func() time.Time `optional:"true"`
	Logger    *slog.Logger
}

// NewRegistrationService is the constructor for registrationService.
func NewRegistrationService(params RegistrationServiceParams) usecase.RegistrationUsecase {
	now := params.Clock
	if now == nil {
		now = time.Now
	}

	return &registrationService{
		txManager: params.TxManager,
		validator: params.Validator,
		hasher:    params.Hasher,
		notifier:  params.Notifier,
		now:       now,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *registrationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete registration: validation, the atomic write and the
// notifications that follow a successful commit.
func (srv *registrationService) Register(ctx context.Context, input *usecase.RegistrationInput) (*entity.Identity, error) {
	srv.log(ctx).Info("Starting registration", slog.Any("role", input.Role), slog.String("username", input.Username))

	if !input.Profile.TermsAccepted {
		srv.log(ctx).Info("Registration rejected: terms not accepted", slog.String("username", input.Username))
		srv.notifier.metrics.RegistrationRejected(input.Role.String(), "terms")

		return nil, errors.WithStack(domainerrors.ErrTermsNotAccepted)
	}

	identity, profile := buildRegistration(input)

	if fieldErrs := srv.validateInput(input, profile); !fieldErrs.Empty() {
		srv.log(ctx).Info("Registration rejected: invalid input", slog.Any("fields", fieldErrs.Fields()))
		srv.notifier.metrics.RegistrationRejected(input.Role.String(), "validation")

		return nil, domainerrors.NewValidationError(fieldErrs)
	}

	conflicts, err := srv.validator.Validate(ctx, entity.UniquenessCandidate{
		Username:             identity.Username,
		Email:                identity.Email,
		PhoneNumber:          profile.Common.PhoneNumber,
		IdentificationNumber: profile.Common.IdentificationNumber,
		IDType:               profile.Common.IDType,
		CountryOfIssue:       profile.Common.CountryOfIssue,
	})
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Uniqueness check failed", err)
	}
	if !conflicts.Empty() {
		srv.log(ctx).Info("Registration rejected: conflicting values", slog.Any("fields", conflicts.Fields()))
		srv.notifier.metrics.RegistrationRejected(input.Role.String(), "conflict")

		return nil, domainerrors.NewConflictError(conflicts)
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Failed to hash password", err)
	}
	identity.PasswordHash = hash

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.IdentityRepo().Create(ctx, identity); err != nil {
			return errors.Wrap(err, "failed to create identity")
		}

		profile.IdentityID = identity.ID
		profileRepo := repoFactory.ProfileRepo()
		if err := profileRepo.Create(ctx, profile); err != nil {
			return errors.Wrap(err, "failed to create profile")
		}
		if err := profileRepo.SetRelations(ctx, identity.ID, profile.Relations()); err != nil {
			return errors.Wrap(err, "failed to set profile relations")
		}

		activity := entity.NewActivity(identity.ID, entity.ActivityAccountCreation, input.SourceAddress, "Account created")
		if err := repoFactory.ActivityRepo().Create(ctx, activity); err != nil {
			return errors.Wrap(err, "failed to record account creation")
		}

		return nil
	})
	if err != nil {
		srv.notifier.metrics.RegistrationRejected(input.Role.String(), "storage")

		return nil, translateWriteError(srv.log(ctx), "register", err)
	}

	srv.log(ctx).Info("Registration completed", slog.Any("role", input.Role), slog.String("identityID", identity.ID.String()))
	srv.afterCommit(ctx, identity, input.SourceAddress)

	return identity, nil
}

func (srv *registrationService) validateInput(input *usecase.RegistrationInput, profile *entity.Profile) entity.FieldErrors {
	fieldErrs := entity.FieldErrors{}

	if !input.Role.IsValid() {
		fieldErrs.Add("role", "must be civilian, support_provider or administrator")
	}
	if strings.TrimSpace(input.Username) == "" {
		fieldErrs.Add("username", "is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		fieldErrs.Add("email", "is required")
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		fieldErrs.Add("password", passwordReason(err))
	}
	for field, reason := range profile.Validate(srv.now()) {
		fieldErrs.Add(field, reason)
	}

	return fieldErrs
}

func (srv *registrationService) afterCommit(ctx context.Context, identity *entity.Identity, address string) {
	role := identity.PrimaryRole()
	srv.notifier.metrics.RegistrationSucceeded(role.String())

	srv.notifier.notifyAdministrators(ctx,
		entity.NotificationInfo,
		"New User Registration",
		fmt.Sprintf("A new %s account '%s' (%s) is waiting for review.", role, identity.Username, identity.Email),
		identity.ID,
	)
	srv.notifier.emailIdentity(ctx, identity,
		"Welcome",
		fmt.Sprintf("Hello %s,\n\nYour account was created and will be available once an administrator activates it.", identity.Username),
	)
	srv.notifier.publish(ctx, service.AccountEventRegistered, identity, address)
}

// buildRegistration maps the input onto a new inactive identity and its profile.
func buildRegistration(input *usecase.RegistrationInput) (*entity.Identity, *entity.Profile) {
	identity := &entity.Identity{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		IsActive: false,
		Roles:    entity.Roles{input.Role},
	}

	profile := &entity.Profile{
		Kind:   input.Role.ProfileKind(),
		Common: input.Profile,
	}
	profile.Common.IdentificationNumber = strings.TrimSpace(profile.Common.IdentificationNumber)
	profile.Common.PhoneNumber = strings.TrimSpace(profile.Common.PhoneNumber)
	profile.Common.CountryOfIssue = strings.ToUpper(strings.TrimSpace(profile.Common.CountryOfIssue))

	switch input.Role {
	case entity.RoleCivilian:
		profile.Civilian = input.Civilian
	case entity.RoleSupportProvider:
		profile.SupportProvider = input.Provider
	case entity.RoleAdministrator:
		profile.Administrator = input.Administrator
	}

	return identity, profile
}

// passwordReason extracts the user-facing reason from a password strength failure.
func passwordReason(err error) string {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if details, ok := appErr.Details().(string); ok && details != "" {
			return details
		}

		return appErr.Message()
	}

	return err.Error()
}
