package auth

import (
	"time"

	"rachel/config"
	"rachel/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	accessTokenType       = "access"
	defaultAccessTokenTTL = 15 * time.Minute
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret []byte
	accessTTL    time.Duration
	now          func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	ttl := defaultAccessTokenTTL
	if cfg.Auth != nil && cfg.Auth.AccessTokenTTL > 0 {
		ttl = cfg.Auth.AccessTokenTTL
	}

	return &jwtService{
		accessSecret: []byte(cfg.SecretKey.Access),
		accessTTL:    ttl,
		now:          time.Now,
	}, nil
}

// GenerateAccessToken signs an access token carrying the identity and its roles.
func (s *jwtService) GenerateAccessToken(identityID uuid.UUID, roles []string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.accessTTL)

	claims := &service.Claims{
		IdentityID: identityID,
		Roles:      roles,
		Type:       accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign access token")
	}

	return signed, expiresAt, nil
}

// ValidateToken checks the signature, expiry and type of an access token.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.accessSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Wrap(err, "parse access token")
	}
	if !token.Valid || claims.Type != accessTokenType || claims.IdentityID == uuid.Nil {
		return nil, errors.New("invalid access token")
	}

	return claims, nil
}
