package validator

import (
	"testing"

	domainerrors "rachel/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contact struct {
	Phone string `json:"phone_number" validate:"required,e164"`
}

type signup struct {
	Username string   `json:"username" validate:"required,min=3"`
	Email    string   `json:"email" validate:"required,email"`
	Role     string   `json:"role" validate:"oneof=civilian support_provider"`
	Contact  contact  `json:"contact"`
	Tags     []string `json:"-"`
}

func TestValidateCollectsFields(t *testing.T) {
	v := New()

	err := v.Validate(&signup{Username: "al", Email: "nope", Role: "admin", Contact: contact{Phone: "0501234567"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	var validationErr *domainerrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "must be at least 3 long", validationErr.Fields["username"])
	assert.Equal(t, "must be a valid email address", validationErr.Fields["email"])
	assert.Equal(t, "must be one of civilian support_provider", validationErr.Fields["role"])
	assert.Equal(t, "must be an E.164 phone number", validationErr.Fields["contact.phone_number"])
}

func TestValidateAcceptsValidInput(t *testing.T) {
	v := New()

	err := v.Validate(&signup{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     "civilian",
		Contact:  contact{Phone: "+972501234567"},
	})
	assert.NoError(t, err)
}
