package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs fn within a single transaction.
	// If fn returns an error or panics, every write made through the factory is rolled back.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances bound to one transaction.
type RepositoryFactory interface {
	IdentityRepo() IdentityRepository
	ProfileRepo() ProfileRepository
	ActivityRepo() ActivityRepository
	NotificationRepo() NotificationRepository
	ResetRequestRepo() ResetRequestRepository
}
