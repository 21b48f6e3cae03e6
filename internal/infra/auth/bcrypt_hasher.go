// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"
	"unicode"

	"rachel/config"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultMinLength = 8
	// bcrypt ignores everything past 72 bytes.
	defaultMaxLength = 72
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	policy config.PasswordStrengthConfig
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost {
		cost = cfg.Auth.BcryptCost
	}

	policy := config.PasswordStrengthConfig{
		MinLength:        defaultMinLength,
		MaxLength:        defaultMaxLength,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
	}
	if cfg.PasswordStrength != nil {
		policy = *cfg.PasswordStrength
		if policy.MinLength <= 0 {
			policy.MinLength = defaultMinLength
		}
		if policy.MaxLength <= 0 || policy.MaxLength > defaultMaxLength {
			policy.MaxLength = defaultMaxLength
		}
	}

	return &bcryptHasher{cost: cost, policy: policy}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt")
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength reports the first rule the password breaks.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	if len(password) < h.policy.MinLength {
		return domainerrors.ErrPasswordStrength.WithDetails("password is too short")
	}
	if len(password) > h.policy.MaxLength {
		return domainerrors.ErrPasswordStrength.WithDetails("password is too long")
	}
	if strings.TrimSpace(password) == "" {
		return domainerrors.ErrPasswordStrength.WithDetails("password must not be blank")
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case h.policy.RequireUppercase && !hasUpper:
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain an uppercase letter")
	case h.policy.RequireLowercase && !hasLower:
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain a lowercase letter")
	case h.policy.RequireNumbers && !hasNumber:
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain a number")
	case h.policy.RequireSpecial && !hasSpecial:
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain a special character")
	}

	return nil
}
