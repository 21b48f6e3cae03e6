// Package model holds the GORM representations of the persisted tables.
package model

import (
	"time"

	"github.com/google/uuid"
)

// IdentityModel mirrors the 'identities' table.
type IdentityModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string     `gorm:"type:varchar(150);not null;uniqueIndex:uq_identities_username"`
	Email        string     `gorm:"type:varchar(254);not null;uniqueIndex:uq_identities_email"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	IsActive     bool       `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `gorm:"index"`

	Roles   []IdentityRoleModel `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
	Profile *ProfileModel       `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}

// IdentityRoleModel mirrors the 'identity_roles' table.
type IdentityRoleModel struct {
	IdentityID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role       string    `gorm:"type:varchar(32);primaryKey;index"`
}

// TableName explicitly sets the table name for GORM.
func (IdentityRoleModel) TableName() string {
	return "identity_roles"
}
