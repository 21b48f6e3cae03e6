package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityModel mirrors the 'activities' table.
type ActivityModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IdentityID    uuid.UUID `gorm:"type:uuid;not null;index:idx_activities_identity_created,priority:1"`
	Type          string    `gorm:"type:varchar(32);not null"`
	SourceAddress string    `gorm:"type:varchar(64);not null;default:'0.0.0.0'"`
	Description   string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"index:idx_activities_identity_created,priority:2"`

	Identity IdentityModel `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (ActivityModel) TableName() string {
	return "activities"
}
