package entity

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// FieldErrors maps a field name to the reason it was rejected.
type FieldErrors map[string]string

// Add records a reason for field, keeping the first reason reported.
func (f FieldErrors) Add(field, reason string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = reason
}

// Empty reports whether no field was rejected.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Fields returns the rejected field names in sorted order.
func (f FieldErrors) Fields() []string {
	return slices.Sorted(maps.Keys(f))
}

// Conflicts maps a field to the reason it collides with existing data.
type Conflicts = FieldErrors

// UniquenessCandidate is the set of values that must not collide with existing identities or profiles.
type UniquenessCandidate struct {
	Username             string
	Email                string
	PhoneNumber          string
	IdentificationNumber string
	IDType               IDType
	CountryOfIssue       string
	// ExcludeIdentityID skips the identity being updated.
	ExcludeIdentityID *uuid.UUID
}
