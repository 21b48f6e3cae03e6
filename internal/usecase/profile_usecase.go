package usecase

import (
	"context"

	"rachel/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileView is an identity together with its decrypted profile.
type ProfileView struct {
	Identity *entity.Identity
	Profile  *entity.Profile
}

// UpdateContactInput carries the contact fields a user may change. Nil fields are left as they are.
type UpdateContactInput struct {
	Email       *string
	PhoneNumber *string
	Address     *string
	City        *string
	Country     *string
	Languages   []string
}

// ProfileUsecase defines the interface for profile-related business operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, identityID uuid.UUID) (*ProfileView, error)
	UpdateContact(ctx context.Context, identityID uuid.UUID, input *UpdateContactInput, address string) (*ProfileView, error)
}
