package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies an in-app notification.
type NotificationType string

const (
	NotificationAlert    NotificationType = "alert"
	NotificationReminder NotificationType = "reminder"
	NotificationInfo     NotificationType = "info"
)

// Notification is an in-app message shown to an identity.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
	DeletedAt   *time.Time       `json:"-"`
}
