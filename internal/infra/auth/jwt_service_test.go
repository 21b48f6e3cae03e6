package auth

import (
	"testing"
	"time"

	"rachel/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(secret string) *config.Config {
	cfg := &config.Config{Auth: &config.AuthConfig{AccessTokenTTL: time.Minute}}
	cfg.SecretKey.Access = secret

	return cfg
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("test_access_secret_key_very_long_for_testing"))
	require.NoError(t, err)

	identityID := uuid.New()
	token, expiresAt, err := svc.GenerateAccessToken(identityID, []string{"administrator"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, identityID, claims.IdentityID)
	assert.Equal(t, []string{"administrator"}, claims.Roles)
	assert.Equal(t, accessTokenType, claims.Type)
	assert.Equal(t, identityID.String(), claims.Subject)
}

func TestJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(newTestConfig(""))
	assert.Error(t, err)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	issuer, err := NewJWTService(newTestConfig("first-secret"))
	require.NoError(t, err)
	verifier, err := NewJWTService(newTestConfig("second-secret"))
	require.NoError(t, err)

	token, _, err := issuer.GenerateAccessToken(uuid.New(), nil)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)

	_, err = verifier.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("secret"))
	require.NoError(t, err)

	impl := svc.(*jwtService)
	impl.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := impl.GenerateAccessToken(uuid.New(), nil)
	require.NoError(t, err)

	impl.now = time.Now
	_, err = impl.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_RejectsOtherTokenTypes(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("secret"))
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"IdentityID": uuid.NewString(),
		"Type":       "refresh",
		"exp":        time.Now().Add(time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
