package postgres

import (
	"fmt"
	"testing"

	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateWriteError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantField      string
		wantConstraint string
		wantUnknownRef bool
		wantDatabase   bool
	}{
		{
			name:           "unique username",
			err:            &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_identities_username"},
			wantField:      "username",
			wantConstraint: "uq_identities_username",
		},
		{
			name:           "wrapped unique phone",
			err:            fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_profiles_phone_number"}),
			wantField:      "phone_number",
			wantConstraint: "uq_profiles_phone_number",
		},
		{
			name:           "identification triple",
			err:            &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_profiles_identification"},
			wantField:      "identification_number",
			wantConstraint: "uq_profiles_identification",
		},
		{
			name:           "unknown constraint keeps empty field",
			err:            &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "profiles_pkey"},
			wantConstraint: "profiles_pkey",
		},
		{
			name: "unknown language code",
			err: &pgconn.PgError{
				Code:           pgForeignKeyViolation,
				TableName:      "profile_languages",
				ConstraintName: "fk_profile_languages_language",
			},
			wantUnknownRef: true,
		},
		{
			name: "gorm translated duplicate",
			err:  gorm.ErrDuplicatedKey,
		},
		{
			name:         "other failures",
			err:          errors.New("connection reset"),
			wantDatabase: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateWriteError(tt.err, "test")

			switch {
			case tt.wantUnknownRef:
				assert.ErrorIs(t, got, repository.ErrUnknownReference)
			case tt.wantDatabase:
				var dbErr *domainerrors.DatabaseExecuteError
				assert.True(t, errors.As(got, &dbErr))
			default:
				var integrity *domainerrors.IntegrityError
				require.True(t, errors.As(got, &integrity))
				assert.Equal(t, tt.wantField, integrity.Field)
				assert.Equal(t, tt.wantConstraint, integrity.Constraint)
			}
		})
	}

	assert.NoError(t, translateWriteError(nil, "test"))
}
