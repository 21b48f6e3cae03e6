package entity

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Identity is the authentication record of an account: credentials, activation state and role.
// Identities are never hard-deleted; deactivation flips IsActive.
type Identity struct {
	ID           uuid.UUID  // The Global Unique Identifier (GUID) for the identity.
	Username     string     // Unique login name.
	Email        string     // Unique contact email.
	PasswordHash string     // bcrypt hash of the password.
	IsActive     bool       // New identities start inactive until an administrator approves them.
	Roles        Roles      // Exactly one role in normal operation.
	CreatedAt    time.Time  // Timestamp of when this identity was created.
	UpdatedAt    time.Time  // Timestamp of the last modification.
	DeletedAt    *time.Time // Soft delete marker.
}

// PrimaryRole returns the first role held by the identity.
func (i *Identity) PrimaryRole() Role {
	if len(i.Roles) == 0 {
		return ""
	}

	return i.Roles[0]
}

// IsAdministrator reports whether the identity holds the administrator role.
func (i *Identity) IsAdministrator() bool {
	return i.Roles.Contains(RoleAdministrator)
}

// ExternalRef returns the opaque reference used in links sent outside the system.
func (i *Identity) ExternalRef() string {
	return base64.RawURLEncoding.EncodeToString(i.ID[:])
}

// ParseExternalRef decodes a reference produced by ExternalRef.
func ParseExternalRef(ref string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(ref))
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "decode external reference")
	}

	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "external reference is not an identity id")
	}

	return id, nil
}
