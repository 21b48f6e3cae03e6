package service

import (
	"context"
	"time"
)

// AccountEventType names an account lifecycle event.
type AccountEventType string

const (
	AccountEventRegistered    AccountEventType = "account.registered"
	AccountEventLockout       AccountEventType = "account.lockout"
	AccountEventResetComplete AccountEventType = "account.password_reset"
	AccountEventActivated     AccountEventType = "account.activated"
	AccountEventDeactivated   AccountEventType = "account.deactivated"
)

// AccountEvent is published after an account change has been committed.
type AccountEvent struct {
	RequestID     string           `json:"request_id,omitempty"` // For distributed tracing
	Type          AccountEventType `json:"type"`
	IdentityID    string           `json:"identity_id,omitempty"`
	Username      string           `json:"username,omitempty"`
	Role          string           `json:"role,omitempty"`
	SourceAddress string           `json:"source_address,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// AccountEventPublisher defines the interface for publishing events to a message queue
type AccountEventPublisher interface {
	Publish(ctx context.Context, event *AccountEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
