package errors

import (
	"fmt"
	"net/http"
	"strings"

	"rachel/internal/domain/entity"

	"github.com/pkg/errors"
)

// ConflictError reports every field whose value collides with existing data.
// It is an expected outcome: the caller fixes the input and tries again.
type ConflictError struct {
	Fields entity.Conflicts
}

// NewConflictError creates a conflict error from a non-empty conflict set.
func NewConflictError(fields entity.Conflicts) *ConflictError {
	return &ConflictError{Fields: fields}
}

// NewFieldConflict creates a conflict error for a single field.
func NewFieldConflict(field, reason string) *ConflictError {
	return &ConflictError{Fields: entity.Conflicts{field: reason}}
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}

	return "conflict: " + strings.Join(parts, "; ")
}

func (e *ConflictError) HTTPCode() int     { return http.StatusConflict }
func (e *ConflictError) ErrorCode() string { return "CONFLICT" }
func (e *ConflictError) Message() string   { return "Some values are already in use" }
func (e *ConflictError) Details() any      { return map[string]string(e.Fields) }

// ValidationError reports structural problems with the input, field by field.
type ValidationError struct {
	Fields entity.FieldErrors
}

// NewValidationError creates a validation error from a non-empty set of field errors.
func NewValidationError(fields entity.FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields.Fields(), ", ")
}

func (e *ValidationError) HTTPCode() int     { return ErrValidationFailed.HTTPCode() }
func (e *ValidationError) ErrorCode() string { return ErrValidationFailed.ErrorCode() }
func (e *ValidationError) Message() string   { return ErrValidationFailed.Message() }
func (e *ValidationError) Details() any      { return map[string]string(e.Fields) }

// Is lets errors.Is(err, ErrValidationFailed) match field-level validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// PolicyDeniedError is returned when a business rule refuses the operation.
// Retrying with the same input will not help; the caller needs a different action.
type PolicyDeniedError struct {
	*BaseError
}

func newPolicyDenied(httpCode int, code, message string) *PolicyDeniedError {
	return &PolicyDeniedError{BaseError: NewBaseError(httpCode, code, message, "")}
}

// Is matches policy denials by business code.
func (e *PolicyDeniedError) Is(target error) bool {
	t, ok := target.(*PolicyDeniedError)
	if !ok {
		return false
	}

	return e.ErrorCode() == t.ErrorCode()
}

var (
	ErrTermsNotAccepted = newPolicyDenied(
		http.StatusBadRequest,
		"TERMS_NOT_ACCEPTED",
		"You must accept the terms to create an account",
	)

	ErrResetQuotaExhausted = newPolicyDenied(
		http.StatusForbidden,
		"RESET_QUOTA_EXHAUSTED",
		"Password reset limit reached. Please contact support",
	)

	// ErrResetTokenInvalid covers unknown, used and expired tokens alike.
	ErrResetTokenInvalid = newPolicyDenied(
		http.StatusBadRequest,
		"RESET_TOKEN_INVALID",
		"The password reset link is invalid or has expired",
	)

	ErrAccountLocked = newPolicyDenied(
		http.StatusLocked,
		"ACCOUNT_LOCKED",
		"Too many failed attempts. Try again later",
	)

	ErrAccountInactive = newPolicyDenied(
		http.StatusForbidden,
		"ACCOUNT_INACTIVE",
		"User inactive, please contact support",
	)
)

// IsPolicyDenied reports whether err is a policy denial.
func IsPolicyDenied(err error) bool {
	var denied *PolicyDeniedError

	return errors.As(err, &denied)
}

// IntegrityError is raised by storage when a write violates a constraint that validation did not catch.
// It never reaches callers; use cases translate it into a ConflictError or an internal error.
type IntegrityError struct {
	// Field is the input field the violated constraint guards, empty when it cannot be identified.
	Field      string
	Constraint string
	err        error
}

// NewIntegrityError wraps a storage constraint violation.
func NewIntegrityError(field, constraint string, err error) *IntegrityError {
	return &IntegrityError{Field: field, Constraint: constraint, err: err}
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on %q (field %q): %v", e.Constraint, e.Field, e.err)
}

func (e *IntegrityError) Unwrap() error {
	return e.err
}

// ToConflict translates the violation into the conflict shape callers understand.
func (e *IntegrityError) ToConflict() (*ConflictError, bool) {
	if e.Field == "" {
		return nil, false
	}

	return NewFieldConflict(e.Field, "already exists"), true
}
