package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the validated contents of an access token.
type Claims struct {
	IdentityID uuid.UUID
	Roles      []string
	Type       string
	jwt.RegisteredClaims
}

// TokenService issues and validates access tokens.
type TokenService interface {
	// GenerateAccessToken signs a token for the identity and its roles.
	GenerateAccessToken(identityID uuid.UUID, roles []string) (token string, expiresAt time.Time, err error)

	// ValidateToken checks the signature and expiry of a token string.
	ValidateToken(tokenString string) (*Claims, error)
}
