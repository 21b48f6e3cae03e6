package entity

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies an entry in an identity's activity log.
type ActivityType string

const (
	ActivityLogin                  ActivityType = "login"
	ActivityLoginFailed            ActivityType = "login_failed"
	ActivityAccountCreation        ActivityType = "account_creation"
	ActivityAccountActivated       ActivityType = "account_activated"
	ActivityAccountDeactivated     ActivityType = "account_deactivated"
	ActivityPasswordChange         ActivityType = "password_change"
	ActivityPasswordResetRequest   ActivityType = "password_reset_request"
	ActivityPasswordResetCompleted ActivityType = "password_reset_completed"
	ActivityProfileUpdate          ActivityType = "profile_update"
)

// DefaultActivityAddress is recorded when the source address of an activity is unknown.
const DefaultActivityAddress = "0.0.0.0"

// Activity is an audit record tied to an identity.
type Activity struct {
	ID            uuid.UUID
	IdentityID    uuid.UUID
	Type          ActivityType
	SourceAddress string
	Description   string
	CreatedAt     time.Time
}

// NewActivity builds an activity entry, substituting the default address when none is known.
func NewActivity(identityID uuid.UUID, activityType ActivityType, address, description string) *Activity {
	if address == "" || address == UnknownAddress {
		address = DefaultActivityAddress
	}

	return &Activity{
		IdentityID:    identityID,
		Type:          activityType,
		SourceAddress: address,
		Description:   description,
	}
}
