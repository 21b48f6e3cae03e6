// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"log/slog"

	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db     *gorm.DB
	cipher service.AddressCipher
	logger *slog.Logger
}

// gormRepositoryFactory implements the domain's RepositoryFactory interface.
// It holds a specific GORM transaction object and uses it to create
// repository instances that are bound to that single transaction.
type gormRepositoryFactory struct {
	tx     *gorm.DB // In GORM, a transaction object is also a *gorm.DB
	cipher service.AddressCipher
}

func (f *gormRepositoryFactory) IdentityRepo() repository.IdentityRepository {
	return &identityRepository{db: f.tx}
}

func (f *gormRepositoryFactory) ProfileRepo() repository.ProfileRepository {
	return &profileRepository{db: f.tx, cipher: f.cipher}
}

func (f *gormRepositoryFactory) ActivityRepo() repository.ActivityRepository {
	return &activityRepository{db: f.tx}
}

func (f *gormRepositoryFactory) NotificationRepo() repository.NotificationRepository {
	return &notificationRepository{db: f.tx}
}

func (f *gormRepositoryFactory) ResetRequestRepo() repository.ResetRequestRepository {
	return &resetRequestRepository{db: f.tx}
}

// TransactionManagerParams holds dependencies for the transaction manager, injected by Fx.
type TransactionManagerParams struct {
	fx.In

	DB     *gorm.DB
	Cipher service.AddressCipher
	Logger *slog.Logger
}

// NewTransactionManager is the constructor for gormTransactionManager.
func NewTransactionManager(params TransactionManagerParams) repository.TransactionManager {
	return &gormTransactionManager{db: params.DB, cipher: params.Cipher, logger: params.Logger}
}

// Execute runs the given function within a single database transaction.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "failed to begin transaction")
	}

	// A panic inside fn must not leave the transaction open.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositoryFactory{tx: tx, cipher: tm.cipher}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			tm.logger.ErrorContext(ctx, "Transaction rollback failed", slog.Any("error", rbErr))
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return translateWriteError(err, "failed to commit transaction")
	}

	return nil
}
