package repository

import (
	"context"
	"errors"

	"rachel/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when an identity has no profile.
var ErrProfileNotFound = errors.New("profile not found")

// ErrUnknownReference is returned when a relation code does not exist in its lookup table.
var ErrUnknownReference = errors.New("unknown relation reference")

// ProfileRepository stores role-specific profiles and their relation sets.
// Uniqueness of phone numbers and identification triples spans every profile kind.
type ProfileRepository interface {
	// FindByIdentityID loads the profile, its payload and relation sets.
	FindByIdentityID(ctx context.Context, identityID uuid.UUID) (*entity.Profile, error)

	// ExistsByPhone reports whether another profile of any kind uses the phone number.
	ExistsByPhone(ctx context.Context, phone string, excludeIdentityID *uuid.UUID) (bool, error)

	// ExistsByIdentification reports whether another profile of any kind uses the identification triple.
	ExistsByIdentification(ctx context.Context, number, countryOfIssue string, idType entity.IDType, excludeIdentityID *uuid.UUID) (bool, error)

	// Create persists the profile row and its payload. Relation sets are written by SetRelations.
	Create(ctx context.Context, profile *entity.Profile) error

	// UpdateContact rewrites the mutable contact fields of the common profile.
	UpdateContact(ctx context.Context, profile *entity.Profile) error

	// SetRelations replaces the relation sets of the profile.
	// An unknown code fails with ErrUnknownReference.
	SetRelations(ctx context.Context, identityID uuid.UUID, relations entity.ProfileRelations) error
}
