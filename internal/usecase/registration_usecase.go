// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"rachel/internal/domain/entity"
)

// RegistrationInput defines the data required to register a new account of any role.
type RegistrationInput struct {
	Role          entity.Role
	Username      string
	Email         string
	Password      string
	Profile       entity.ProfileCommon
	Civilian      *entity.CivilianDetails
	Provider      *entity.SupportProviderDetails
	Administrator *entity.AdministratorDetails
	// SourceAddress is the network origin of the request, or empty when unknown.
	SourceAddress string
}

// RegistrationUsecase creates an identity, its profile and relation sets as one unit.
type RegistrationUsecase interface {
	// Register returns the new, inactive identity.
	// Expected failures are *domainerrors.ConflictError, *domainerrors.ValidationError and
	// domainerrors.ErrTermsNotAccepted; anything else is domainerrors.ErrInternalError.
	Register(ctx context.Context, input *RegistrationInput) (*entity.Identity, error)
}

// UniquenessValidator checks candidate values against existing identities and profiles.
// It is advisory: storage constraints remain the final authority.
type UniquenessValidator interface {
	// Validate returns every conflicting field. A non-nil error means the check itself failed.
	Validate(ctx context.Context, candidate entity.UniquenessCandidate) (entity.Conflicts, error)
}
