package model

import "time"

// AuthAttemptModel mirrors the append-only 'auth_attempts' table.
type AuthAttemptModel struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	SourceAddress string    `gorm:"type:varchar(64);not null;index:idx_auth_attempts_address_time,priority:1"`
	Username      string    `gorm:"type:varchar(150);not null;index:idx_auth_attempts_username_time,priority:1"`
	Outcome       string    `gorm:"type:varchar(10);not null"`
	OccurredAt    time.Time `gorm:"not null;index:idx_auth_attempts_address_time,priority:2;index:idx_auth_attempts_username_time,priority:2"`
}

// TableName explicitly sets the table name for GORM.
func (AuthAttemptModel) TableName() string {
	return "auth_attempts"
}
