package service

import "context"

// NotificationDispatcher delivers outbound messages, usually email.
// Callers treat failures as non-fatal: they log and carry on.
type NotificationDispatcher interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}
