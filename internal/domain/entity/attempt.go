package entity

import (
	"strings"
	"time"
)

// UnknownAddress is the bucket used when the source address of a request cannot be determined.
const UnknownAddress = "unknown"

// NormalizeAddress trims the address and maps an empty value to UnknownAddress.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return UnknownAddress
	}

	return address
}

// AttemptOutcome is the result of one authentication attempt.
type AttemptOutcome string

const (
	AttemptSuccess AttemptOutcome = "success"
	AttemptFailure AttemptOutcome = "failure"
	// AttemptLocked marks an attempt refused while a lockout was active. It is never counted.
	AttemptLocked AttemptOutcome = "locked"
)

// AttemptEntry is one append-only row of the authentication attempt ledger.
type AttemptEntry struct {
	ID            int64
	SourceAddress string
	Username      string
	Outcome       AttemptOutcome
	OccurredAt    time.Time
}

// LockoutSubject identifies what a lockout applies to.
type LockoutSubject string

// AddressSubject returns the lockout subject for a source address.
func AddressSubject(address string) LockoutSubject {
	return LockoutSubject("addr:" + NormalizeAddress(address))
}

// UsernameSubject returns the lockout subject for a username.
func UsernameSubject(username string) LockoutSubject {
	return LockoutSubject("user:" + strings.ToLower(strings.TrimSpace(username)))
}

// LockoutState records until when a subject is locked out.
// The record is kept after it elapses so it can bound the next counting window.
type LockoutState struct {
	Subject     LockoutSubject
	LockedUntil time.Time
}

// IsLockedAt reports whether the lockout is still in force at now.
func (s *LockoutState) IsLockedAt(now time.Time) bool {
	return s != nil && now.Before(s.LockedUntil)
}

// LockoutDecision is the outcome of evaluating a failed attempt.
type LockoutDecision struct {
	Locked       bool
	LockedUntil  time.Time
	FailureCount int64
	// Alerted is true when this failure triggered a fresh lockout and an administrator alert.
	Alerted bool
}
