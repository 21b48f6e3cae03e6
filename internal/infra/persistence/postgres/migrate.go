package postgres

import (
	"context"

	"rachel/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates every table and seeds the lookup tables.
// Lookup tables come first so the join tables can reference them.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(
		&model.LanguageModel{},
		&model.IntentionModel{},
		&model.CategoryModel{},
		&model.IdentityModel{},
		&model.IdentityRoleModel{},
		&model.ProfileModel{},
		&model.CivilianProfileModel{},
		&model.SupportProviderProfileModel{},
		&model.AdministratorProfileModel{},
		&model.ProfileLanguageModel{},
		&model.CivilianIntentionModel{},
		&model.ProviderCategoryModel{},
		&model.ActivityModel{},
		&model.NotificationModel{},
		&model.ResetRequestModel{},
		&model.AuthAttemptModel{},
	); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}

	seed := db.Clauses(clause.OnConflict{DoNothing: true})
	if err := seed.Create(&model.DefaultLanguages).Error; err != nil {
		return errors.Wrap(err, "failed to seed languages")
	}
	if err := seed.Create(&model.DefaultIntentions).Error; err != nil {
		return errors.Wrap(err, "failed to seed intentions")
	}
	if err := seed.Create(&model.DefaultCategories).Error; err != nil {
		return errors.Wrap(err, "failed to seed categories")
	}

	return nil
}
