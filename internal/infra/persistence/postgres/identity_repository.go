package postgres

import (
	"context"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// identityRepository implements the repository.IdentityRepository interface.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository is the constructor for identityRepository.
func NewIdentityRepository(db *gorm.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

func (repo *identityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	return repo.findOne(ctx, "id = ?", id)
}

func (repo *identityRepository) FindByUsername(ctx context.Context, username string) (*entity.Identity, error) {
	return repo.findOne(ctx, "username = ?", username)
}

func (repo *identityRepository) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	return repo.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

// ExistsByUsername reads from the primary so a registration that just committed is visible.
func (repo *identityRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.IdentityModel{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check username")
	}

	return count > 0, nil
}

func (repo *identityRepository) ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	query := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.IdentityModel{}).
		Where("LOWER(email) = LOWER(?)", email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check email")
	}

	return count > 0, nil
}

func (repo *identityRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Identity, error) {
	var identityModels []*model.IdentityModel
	if err := repo.db.WithContext(ctx).
		Select("identities.*").
		Preload("Roles").
		Joins("JOIN identity_roles ON identity_roles.identity_id = identities.id").
		Where("identity_roles.role = ? AND identities.deleted_at IS NULL", role.String()).
		Order("identities.created_at ASC").
		Find(&identityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list identities by role")
	}

	identities := make([]*entity.Identity, 0, len(identityModels))
	for _, m := range identityModels {
		identities = append(identities, toIdentityDomain(m))
	}

	return identities, nil
}

// Create inserts the identity and its roles. Callers run it inside a transaction.
func (repo *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	identityM := fromIdentityDomain(identity)

	db := repo.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(identityM).Error; err != nil {
		return translateWriteError(err, "failed to create identity")
	}
	if len(identityM.Roles) > 0 {
		if err := db.Create(&identityM.Roles).Error; err != nil {
			return translateWriteError(err, "failed to assign roles")
		}
	}

	identity.CreatedAt = identityM.CreatedAt
	identity.UpdatedAt = identityM.UpdatedAt

	return nil
}

func (repo *identityRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return repo.updateColumn(ctx, id, "is_active", active)
}

func (repo *identityRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return repo.updateColumn(ctx, id, "password_hash", passwordHash)
}

func (repo *identityRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	return repo.updateColumn(ctx, id, "email", email)
}

func (repo *identityRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Identity, error) {
	var identityM model.IdentityModel
	if err := repo.db.WithContext(ctx).
		Preload("Roles").
		Where("deleted_at IS NULL").
		Where(query, args...).
		First(&identityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to find identity")
	}

	return toIdentityDomain(&identityM), nil
}

func (repo *identityRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	result := repo.db.WithContext(ctx).
		Model(&model.IdentityModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update(column, value)
	if result.Error != nil {
		return translateWriteError(result.Error, "failed to update "+column)
	}
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	return nil
}

func toIdentityDomain(data *model.IdentityModel) *entity.Identity {
	roles := make([]string, 0, len(data.Roles))
	for _, r := range data.Roles {
		roles = append(roles, r.Role)
	}

	return &entity.Identity{
		ID:           data.ID,
		Username:     data.Username,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		IsActive:     data.IsActive,
		Roles:        entity.RolesFromStrings(roles),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
		DeletedAt:    data.DeletedAt,
	}
}

func fromIdentityDomain(data *entity.Identity) *model.IdentityModel {
	roles := make([]model.IdentityRoleModel, 0, len(data.Roles))
	for _, r := range data.Roles {
		roles = append(roles, model.IdentityRoleModel{IdentityID: data.ID, Role: r.String()})
	}

	return &model.IdentityModel{
		ID:           data.ID,
		Username:     data.Username,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		IsActive:     data.IsActive,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
		DeletedAt:    data.DeletedAt,
		Roles:        roles,
	}
}
