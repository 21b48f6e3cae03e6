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
	"rachel/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// profileService implements the ProfileUsecase interface.
type profileService struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	profileRepo  repository.ProfileRepository
	validator    usecase.UniquenessValidator
	notifier     *accountNotifier
	now          func() time.Time
	logger       *slog.Logger
}

// ProfileServiceParams holds dependencies for ProfileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	ProfileRepo  repository.ProfileRepository
	Validator    usecase.UniquenessValidator
	Notifier     *accountNotifier
	Clock        func() time.Time `optional:"true"`
	Logger       *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	now := params.Clock
	if now == nil {
		now = time.Now
	}

	return &profileService{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		profileRepo:  params.ProfileRepo,
		validator:    params.Validator,
		notifier:     params.Notifier,
		now:          now,
		logger:       params.Logger,
	}
}

func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *profileService) GetProfile(ctx context.Context, identityID uuid.UUID) (*usecase.ProfileView, error) {
	identity, err := srv.identityRepo.FindByID(ctx, identityID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, errors.WithStack(domainerrors.ErrIdentityNotFound)
	}
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Failed to load identity", err)
	}

	profile, err := srv.profileRepo.FindByIdentityID(ctx, identityID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, errors.WithStack(domainerrors.ErrNotFound)
	}
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Failed to load profile", err)
	}

	return &usecase.ProfileView{Identity: identity, Profile: profile}, nil
}

// UpdateContact changes contact fields under the same uniqueness rules as registration,
// skipping the caller's own record.
func (srv *profileService) UpdateContact(
	ctx context.Context,
	identityID uuid.UUID,
	input *usecase.UpdateContactInput,
	address string,
) (*usecase.ProfileView, error) {
	view, err := srv.GetProfile(ctx, identityID)
	if err != nil {
		return nil, err
	}
	identity, profile := view.Identity, view.Profile

	emailChanged := false
	candidate := entity.UniquenessCandidate{ExcludeIdentityID: &identityID}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, domainerrors.NewValidationError(entity.FieldErrors{"email": "is required"})
		}
		if email != identity.Email {
			emailChanged = true
			identity.Email = email
			candidate.Email = email
		}
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if phone != profile.Common.PhoneNumber {
			profile.Common.PhoneNumber = phone
			candidate.PhoneNumber = phone
		}
	}
	if input.Address != nil {
		profile.Common.Address = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		profile.Common.City = strings.TrimSpace(*input.City)
	}
	if input.Country != nil {
		profile.Common.Country = strings.TrimSpace(*input.Country)
	}
	if input.Languages != nil {
		profile.Common.Languages = input.Languages
	}

	// ActiveUntil may have lapsed since registration; only the edited fields are checked here.
	fieldErrs := profile.Validate(srv.now())
	delete(fieldErrs, "active_until")
	if !fieldErrs.Empty() {
		return nil, domainerrors.NewValidationError(fieldErrs)
	}

	conflicts, err := srv.validator.Validate(ctx, candidate)
	if err != nil {
		return nil, internalError(ctx, srv.log(ctx), "Uniqueness check failed", err)
	}
	if !conflicts.Empty() {
		srv.log(ctx).Info("Contact update rejected: conflicting values", slog.Any("fields", conflicts.Fields()))

		return nil, domainerrors.NewConflictError(conflicts)
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if emailChanged {
			if err := repoFactory.IdentityRepo().UpdateEmail(ctx, identityID, identity.Email); err != nil {
				return errors.Wrap(err, "failed to update email")
			}
		}

		profileRepo := repoFactory.ProfileRepo()
		if err := profileRepo.UpdateContact(ctx, profile); err != nil {
			return errors.Wrap(err, "failed to update profile")
		}
		if input.Languages != nil {
			if err := profileRepo.SetRelations(ctx, identityID, profile.Relations()); err != nil {
				return errors.Wrap(err, "failed to update languages")
			}
		}

		activity := entity.NewActivity(identityID, entity.ActivityProfileUpdate, address, "Contact details updated")
		if err := repoFactory.ActivityRepo().Create(ctx, activity); err != nil {
			return errors.Wrap(err, "failed to record profile update")
		}

		return nil
	})
	if err != nil {
		return nil, translateWriteError(srv.log(ctx), "update_contact", err)
	}

	srv.log(ctx).Info("Contact details updated", slog.String("identityID", identityID.String()))
	srv.notifier.emailIdentity(ctx, identity,
		"Your profile was updated",
		fmt.Sprintf("Hello %s,\n\nThe contact details on your account were changed.", identity.Username),
	)

	return &usecase.ProfileView{Identity: identity, Profile: profile}, nil
}
