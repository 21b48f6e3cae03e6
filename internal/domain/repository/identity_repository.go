// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"rachel/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrIdentityNotFound is returned when no identity matches the lookup.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository stores credential records.
type IdentityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	FindByUsername(ctx context.Context, username string) (*entity.Identity, error)

	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// ExistsByUsername reports whether any identity already uses the username.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether another identity uses the email, ignoring excludeID when set.
	ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)

	// ListByRole returns active and inactive identities holding role.
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.Identity, error)

	// Create persists a new identity and fills in its ID and timestamps.
	// A unique violation is returned as *domainerrors.IntegrityError.
	Create(ctx context.Context, identity *entity.Identity) error

	// SetActive flips the activation flag.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateEmail replaces the contact email.
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
}
