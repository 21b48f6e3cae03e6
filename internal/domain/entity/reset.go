package entity

import (
	"time"

	"github.com/google/uuid"
)

// ResetRequest is the per-identity password reset record.
// RequestCount only grows, except through an administrative override.
type ResetRequest struct {
	IdentityID   uuid.UUID
	RequestCount int
	TokenHash    string // SHA-256 of the most recently issued token.
	TokenUsed    bool
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// CanRequest reports whether another reset may be issued under the given quota.
func (r *ResetRequest) CanRequest(maxRequests int) bool {
	return r == nil || r.RequestCount < maxRequests
}

// IsTokenUsable reports whether the stored token can still complete a reset at now.
func (r *ResetRequest) IsTokenUsable(now time.Time) bool {
	return r != nil && !r.TokenUsed && r.TokenHash != "" && now.Before(r.ExpiresAt)
}
