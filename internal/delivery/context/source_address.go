package context

import (
	"context"

	"rachel/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// KeySourceAddress is the key for storing the resolved client address.
	KeySourceAddress ContextKey = "source_address"

	// KeyIdentityID is the key for storing the authenticated identity ID.
	KeyIdentityID ContextKey = "identity_id"

	// KeyRoles is the key for storing the authenticated identity's roles.
	KeyRoles ContextKey = "roles"
)

// SetSourceAddress stores the client address in echo.Context.
func SetSourceAddress(c echo.Context, address string) {
	c.Set(string(KeySourceAddress), entity.NormalizeAddress(address))
}

// GetSourceAddress returns the client address, or entity.UnknownAddress when it was never resolved.
func GetSourceAddress(c echo.Context) string {
	if address, ok := c.Get(string(KeySourceAddress)).(string); ok && address != "" {
		return address
	}

	return entity.UnknownAddress
}

// WithSourceAddress returns a new context with the client address.
func WithSourceAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, KeySourceAddress, entity.NormalizeAddress(address))
}

// GetSourceAddressFromContext extracts the client address from standard context.Context.
func GetSourceAddressFromContext(ctx context.Context) string {
	if address, ok := ctx.Value(KeySourceAddress).(string); ok && address != "" {
		return address
	}

	return entity.UnknownAddress
}

// SetIdentity stores the authenticated caller in echo.Context.
func SetIdentity(c echo.Context, identityID uuid.UUID, roles []string) {
	c.Set(string(KeyIdentityID), identityID)
	c.Set(string(KeyRoles), roles)
}

// GetIdentityID returns the authenticated identity ID.
func GetIdentityID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(string(KeyIdentityID)).(uuid.UUID)

	return id, ok && id != uuid.Nil
}

// GetRoles returns the authenticated identity's roles.
func GetRoles(c echo.Context) []string {
	roles, _ := c.Get(string(KeyRoles)).([]string)

	return roles
}
