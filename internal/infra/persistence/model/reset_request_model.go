package model

import (
	"time"

	"github.com/google/uuid"
)

// ResetRequestModel mirrors the 'password_reset_requests' table. One row per identity.
type ResetRequestModel struct {
	IdentityID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestCount int       `gorm:"not null;default:0"`
	TokenHash    string    `gorm:"type:varchar(64)"`
	TokenUsed    bool      `gorm:"not null;default:false"`
	IssuedAt     time.Time
	ExpiresAt    time.Time
	UpdatedAt    time.Time

	Identity IdentityModel `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (ResetRequestModel) TableName() string {
	return "password_reset_requests"
}
