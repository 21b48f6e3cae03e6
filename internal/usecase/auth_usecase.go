package usecase

import (
	"context"
	"time"

	"rachel/internal/domain/entity"
)

// LoginInput defines the data required to log in.
type LoginInput struct {
	Username      string
	Password      string
	SourceAddress string
}

// LoginOutput returns the access token after a successful login.
type LoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    *entity.Identity
}

// AuthUsecase authenticates identities behind the lockout policy.
type AuthUsecase interface {
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
}
