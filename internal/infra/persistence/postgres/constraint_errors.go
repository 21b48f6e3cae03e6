package postgres

import (
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// constraintFields maps unique indexes to the input field they guard.
var constraintFields = map[string]string{
	"uq_identities_username":     "username",
	"uq_identities_email":        "email",
	"uq_profiles_phone_number":   "phone_number",
	"uq_profiles_identification": "identification_number",
}

// relationTables are the join tables whose foreign keys point at lookup tables.
var relationTables = map[string]struct{}{
	"profile_languages":           {},
	"civilian_intentions":         {},
	"support_provider_categories": {},
}

func asConstraintViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}

	switch pgErr.Code {
	case pgUniqueViolation, pgForeignKeyViolation, pgNotNullViolation, pgCheckViolation:
		return pgErr, true
	default:
		return nil, false
	}
}

// translateWriteError converts driver errors into the errors the domain understands:
// constraint violations become *domainerrors.IntegrityError, lookup misses become
// repository.ErrUnknownReference, and anything else a database execution error.
func translateWriteError(err error, details string) error {
	if err == nil {
		return nil
	}

	if pgErr, ok := asConstraintViolation(err); ok {
		if pgErr.Code == pgForeignKeyViolation {
			if _, isRelation := relationTables[pgErr.TableName]; isRelation {
				return errors.Wrapf(repository.ErrUnknownReference, "%s: %s", pgErr.ConstraintName, pgErr.Detail)
			}
		}

		return domainerrors.NewIntegrityError(constraintFields[pgErr.ConstraintName], pgErr.ConstraintName, err)
	}

	// With TranslateError enabled GORM hides the driver error behind sentinels.
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return domainerrors.NewIntegrityError("", "", err)
	}

	return domainerrors.NewDatabaseExecuteError(err, details)
}
