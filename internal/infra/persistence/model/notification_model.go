package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationModel is the GORM-specific struct for the 'notifications' table.
// Deleted notifications keep their row with DeletedAt set.
type NotificationModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index:idx_notifications_recipient_created,priority:1"`
	Title       string     `gorm:"type:varchar(255);not null"`
	Message     string     `gorm:"type:text;not null"`
	Type        string     `gorm:"type:varchar(20);not null;default:'info'"`
	Read        bool       `gorm:"column:is_read;not null;default:false"`
	CreatedAt   time.Time  `gorm:"index:idx_notifications_recipient_created,priority:2"`
	DeletedAt   *time.Time `gorm:"index"`

	Recipient IdentityModel `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (NotificationModel) TableName() string {
	return "notifications"
}
