package impl

import (
	"context"
	"log/slog"

	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"

	"github.com/pkg/errors"
)

// translateWriteError maps a failed transactional write to what callers may see.
// Constraint violations that slipped past validation become conflicts; unknown relation
// codes become validation errors; everything else is reported as an internal error.
func translateWriteError(logger *slog.Logger, operation string, err error) error {
	var integrity *domainerrors.IntegrityError
	if errors.As(err, &integrity) {
		logger.Error("Storage constraint rejected a validated write",
			slog.String("operation", operation),
			slog.String("constraint", integrity.Constraint),
			slog.String("field", integrity.Field),
			slog.Any("error", err),
		)
		if conflict, ok := integrity.ToConflict(); ok {
			return conflict
		}

		return errors.WithStack(domainerrors.ErrInternalError)
	}

	if errors.Is(err, repository.ErrUnknownReference) {
		logger.Warn("Write referenced an unknown code", slog.String("operation", operation), slog.Any("error", err))

		return domainerrors.NewValidationError(entity.FieldErrors{"relations": "contains an unknown code"})
	}

	var conflict *domainerrors.ConflictError
	if errors.As(err, &conflict) {
		return conflict
	}

	logger.Error("Transaction failed", slog.String("operation", operation), slog.Any("error", err))

	return errors.WithStack(domainerrors.ErrInternalError)
}

// internalError logs an unexpected failure and hides it behind the generic internal error.
func internalError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) error {
	logger.ErrorContext(ctx, msg, append(attrs, slog.Any("error", err))...)

	return errors.WithStack(domainerrors.ErrInternalError)
}
