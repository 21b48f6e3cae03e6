package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	reasonUsernameTaken       = "A user with that username already exists"
	reasonEmailTaken          = "A user with that email already exists"
	reasonPhoneTaken          = "This phone number is already registered"
	reasonIdentificationTaken = "This identification number is already registered for the selected country and ID type"
)

type uniquenessValidator struct {
	identityRepo repository.IdentityRepository
	profileRepo  repository.ProfileRepository
	logger       *slog.Logger
}

// UniquenessValidatorParams holds dependencies for the uniqueness validator, injected by Fx.
type UniquenessValidatorParams struct {
	fx.In

	IdentityRepo repository.IdentityRepository
	ProfileRepo  repository.ProfileRepository
	Logger       *slog.Logger
}

// NewUniquenessValidator checks candidates against every profile kind at once.
func NewUniquenessValidator(params UniquenessValidatorParams) usecase.UniquenessValidator {
	return &uniquenessValidator{
		identityRepo: params.IdentityRepo,
		profileRepo:  params.ProfileRepo,
		logger:       params.Logger,
	}
}

func (v *uniquenessValidator) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, v.logger)
}

// Validate runs every check, so the caller learns about all conflicting fields in one round trip.
func (v *uniquenessValidator) Validate(ctx context.Context, candidate entity.UniquenessCandidate) (entity.Conflicts, error) {
	conflicts := entity.Conflicts{}

	if username := strings.TrimSpace(candidate.Username); username != "" {
		exists, err := v.identityRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, errors.Wrap(err, "check username")
		}
		if exists {
			conflicts.Add("username", reasonUsernameTaken)
		}
	}

	if email := strings.TrimSpace(candidate.Email); email != "" {
		exists, err := v.identityRepo.ExistsByEmail(ctx, email, candidate.ExcludeIdentityID)
		if err != nil {
			return nil, errors.Wrap(err, "check email")
		}
		if exists {
			conflicts.Add("email", reasonEmailTaken)
		}
	}

	if phone := strings.TrimSpace(candidate.PhoneNumber); phone != "" {
		exists, err := v.profileRepo.ExistsByPhone(ctx, phone, candidate.ExcludeIdentityID)
		if err != nil {
			return nil, errors.Wrap(err, "check phone number")
		}
		if exists {
			conflicts.Add("phone_number", reasonPhoneTaken)
		}
	}

	if number := strings.TrimSpace(candidate.IdentificationNumber); number != "" {
		exists, err := v.profileRepo.ExistsByIdentification(
			ctx, number, candidate.CountryOfIssue, candidate.IDType, candidate.ExcludeIdentityID,
		)
		if err != nil {
			return nil, errors.Wrap(err, "check identification number")
		}
		if exists {
			conflicts.Add("identification_number", reasonIdentificationTaken)
		}
	}

	if !conflicts.Empty() {
		v.log(ctx).Debug("Uniqueness conflicts found", slog.Any("fields", conflicts.Fields()))
	}

	return conflicts, nil
}
