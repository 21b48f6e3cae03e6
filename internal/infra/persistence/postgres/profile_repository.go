package postgres

import (
	"context"
	"slices"
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"
	"rachel/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// profileRepository implements the repository.ProfileRepository interface.
// The address column only ever holds ciphertext.
type profileRepository struct {
	db     *gorm.DB
	cipher service.AddressCipher
}

// NewProfileRepository is the constructor for profileRepository.
func NewProfileRepository(db *gorm.DB, cipher service.AddressCipher) repository.ProfileRepository {
	return &profileRepository{db: db, cipher: cipher}
}

func (repo *profileRepository) FindByIdentityID(ctx context.Context, identityID uuid.UUID) (*entity.Profile, error) {
	var profileM model.ProfileModel
	if err := repo.db.WithContext(ctx).
		Preload("Languages").
		Preload("Civilian.Intentions").
		Preload("SupportProvider.Categories").
		Preload("Administrator").
		Where("identity_id = ?", identityID).
		First(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}

		return nil, errors.Wrap(err, "failed to find profile")
	}

	address, err := repo.openAddress(profileM.Address)
	if err != nil {
		return nil, err
	}

	profile := toProfileDomain(&profileM)
	profile.Common.Address = address

	return profile, nil
}

func (repo *profileRepository) ExistsByPhone(ctx context.Context, phone string, excludeIdentityID *uuid.UUID) (bool, error) {
	query := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.ProfileModel{}).
		Where("phone_number = ?", phone)

	return countExists(excludeOwner(query, excludeIdentityID), "phone number")
}

func (repo *profileRepository) ExistsByIdentification(
	ctx context.Context,
	number, countryOfIssue string,
	idType entity.IDType,
	excludeIdentityID *uuid.UUID,
) (bool, error) {
	query := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.ProfileModel{}).
		Where("identification_number = ? AND country_of_issue = ? AND id_type = ?", number, countryOfIssue, string(idType))

	return countExists(excludeOwner(query, excludeIdentityID), "identification number")
}

// Create inserts the common row and the payload row of the profile kind.
func (repo *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	sealed, err := repo.sealAddress(profile.Common.Address)
	if err != nil {
		return err
	}

	profileM := fromProfileDomain(profile)
	profileM.Address = sealed

	db := repo.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(profileM).Error; err != nil {
		return translateWriteError(err, "failed to create profile")
	}

	var payload any
	switch {
	case profileM.Civilian != nil:
		payload = profileM.Civilian
	case profileM.SupportProvider != nil:
		payload = profileM.SupportProvider
	case profileM.Administrator != nil:
		payload = profileM.Administrator
	}
	if payload != nil {
		if err := db.Omit(clause.Associations).Create(payload).Error; err != nil {
			return translateWriteError(err, "failed to create profile payload")
		}
	}

	profile.CreatedAt = profileM.CreatedAt
	profile.UpdatedAt = profileM.UpdatedAt

	return nil
}

func (repo *profileRepository) UpdateContact(ctx context.Context, profile *entity.Profile) error {
	sealed, err := repo.sealAddress(profile.Common.Address)
	if err != nil {
		return err
	}

	result := repo.db.WithContext(ctx).
		Model(&model.ProfileModel{}).
		Where("identity_id = ?", profile.IdentityID).
		Updates(map[string]any{
			"phone_number": profile.Common.PhoneNumber,
			"address":      sealed,
			"city":         profile.Common.City,
			"country":      profile.Common.Country,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return translateWriteError(result.Error, "failed to update profile contact")
	}
	if result.RowsAffected == 0 {
		return repository.ErrProfileNotFound
	}

	return nil
}

// SetRelations replaces the three relation sets. Unknown codes are rejected before anything is written.
func (repo *profileRepository) SetRelations(ctx context.Context, identityID uuid.UUID, relations entity.ProfileRelations) error {
	db := repo.db.WithContext(ctx)

	languages := uniqueCodes(relations.Languages)
	intentions := uniqueCodes(relations.Intentions)
	categories := uniqueCodes(relations.Categories)

	if err := checkKnownCodes(db, &model.LanguageModel{}, "language", languages); err != nil {
		return err
	}
	if err := checkKnownCodes(db, &model.IntentionModel{}, "intention", intentions); err != nil {
		return err
	}
	if err := checkKnownCodes(db, &model.CategoryModel{}, "category", categories); err != nil {
		return err
	}

	if err := db.Where("profile_id = ?", identityID).Delete(&model.ProfileLanguageModel{}).Error; err != nil {
		return translateWriteError(err, "failed to clear languages")
	}
	if err := db.Where("profile_id = ?", identityID).Delete(&model.CivilianIntentionModel{}).Error; err != nil {
		return translateWriteError(err, "failed to clear intentions")
	}
	if err := db.Where("profile_id = ?", identityID).Delete(&model.ProviderCategoryModel{}).Error; err != nil {
		return translateWriteError(err, "failed to clear categories")
	}

	if len(languages) > 0 {
		rows := make([]model.ProfileLanguageModel, 0, len(languages))
		for _, code := range languages {
			rows = append(rows, model.ProfileLanguageModel{ProfileID: identityID, LanguageCode: code})
		}
		if err := db.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return translateWriteError(err, "failed to set languages")
		}
	}
	if len(intentions) > 0 {
		rows := make([]model.CivilianIntentionModel, 0, len(intentions))
		for _, code := range intentions {
			rows = append(rows, model.CivilianIntentionModel{ProfileID: identityID, IntentionCode: code})
		}
		if err := db.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return translateWriteError(err, "failed to set intentions")
		}
	}
	if len(categories) > 0 {
		rows := make([]model.ProviderCategoryModel, 0, len(categories))
		for _, code := range categories {
			rows = append(rows, model.ProviderCategoryModel{ProfileID: identityID, CategoryCode: code})
		}
		if err := db.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return translateWriteError(err, "failed to set categories")
		}
	}

	return nil
}

func (repo *profileRepository) sealAddress(address string) (string, error) {
	if address == "" {
		return "", nil
	}

	sealed, err := repo.cipher.Encrypt(address)
	if err != nil {
		return "", errors.Wrap(err, "failed to seal address")
	}

	return sealed, nil
}

func (repo *profileRepository) openAddress(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	address, err := repo.cipher.Decrypt(sealed)
	if err != nil {
		return "", errors.Wrap(err, "failed to open address")
	}

	return address, nil
}

func checkKnownCodes(db *gorm.DB, lookup any, kind string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	var known int64
	if err := db.Model(lookup).Where("code IN ?", codes).Count(&known).Error; err != nil {
		return errors.Wrapf(err, "failed to look up %s codes", kind)
	}
	if known != int64(len(codes)) {
		return errors.Wrapf(repository.ErrUnknownReference, "%s codes %v", kind, codes)
	}

	return nil
}

func uniqueCodes(codes []string) []string {
	out := slices.Clone(codes)
	slices.Sort(out)

	return slices.Compact(out)
}

func excludeOwner(query *gorm.DB, excludeIdentityID *uuid.UUID) *gorm.DB {
	if excludeIdentityID == nil {
		return query
	}

	return query.Where("identity_id <> ?", *excludeIdentityID)
}

func countExists(query *gorm.DB, what string) (bool, error) {
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errors.Wrapf(err, "failed to check %s", what)
	}

	return count > 0, nil
}

func toProfileDomain(data *model.ProfileModel) *entity.Profile {
	languages := make([]string, 0, len(data.Languages))
	for _, l := range data.Languages {
		languages = append(languages, l.LanguageCode)
	}

	profile := &entity.Profile{
		IdentityID: data.IdentityID,
		Kind:       entity.ProfileKind(data.Kind),
		Common: entity.ProfileCommon{
			IdentificationNumber: data.IdentificationNumber,
			IDType:               entity.IDType(data.IDType),
			CountryOfIssue:       data.CountryOfIssue,
			Languages:            languages,
			PhoneNumber:          data.PhoneNumber,
			ProfilePicture:       data.ProfilePicture,
			City:                 data.City,
			Country:              data.Country,
			TermsAccepted:        data.TermsAccepted,
			ActiveUntil:          data.ActiveUntil,
		},
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}

	if c := data.Civilian; c != nil {
		intentions := make([]string, 0, len(c.Intentions))
		for _, i := range c.Intentions {
			intentions = append(intentions, i.IntentionCode)
		}
		profile.Civilian = &entity.CivilianDetails{Gender: entity.Gender(c.Gender), Intentions: intentions}
	}
	if sp := data.SupportProvider; sp != nil {
		categories := make([]string, 0, len(sp.Categories))
		for _, c := range sp.Categories {
			categories = append(categories, c.CategoryCode)
		}
		profile.SupportProvider = &entity.SupportProviderDetails{
			Categories:           categories,
			LookingToEarn:        sp.LookingToEarn,
			Rating:               sp.Rating,
			Kosher:               sp.Kosher,
			AccessibleFacilities: sp.AccessibleFacilities,
			ServiceHours:         sp.ServiceHours,
			AdditionalInfo:       sp.AdditionalInfo,
		}
	}
	if a := data.Administrator; a != nil {
		profile.Administrator = &entity.AdministratorDetails{Department: entity.Department(a.Department)}
	}

	return profile
}

// fromProfileDomain maps the profile without its relation sets, which SetRelations writes.
func fromProfileDomain(data *entity.Profile) *model.ProfileModel {
	profileM := &model.ProfileModel{
		IdentityID:           data.IdentityID,
		Kind:                 string(data.Kind),
		IdentificationNumber: data.Common.IdentificationNumber,
		CountryOfIssue:       data.Common.CountryOfIssue,
		IDType:               string(data.Common.IDType),
		PhoneNumber:          data.Common.PhoneNumber,
		ProfilePicture:       data.Common.ProfilePicture,
		City:                 data.Common.City,
		Country:              data.Common.Country,
		TermsAccepted:        data.Common.TermsAccepted,
		ActiveUntil:          data.Common.ActiveUntil,
	}

	switch {
	case data.Civilian != nil:
		profileM.Civilian = &model.CivilianProfileModel{
			IdentityID: data.IdentityID,
			Gender:     string(data.Civilian.Gender),
		}
	case data.SupportProvider != nil:
		sp := data.SupportProvider
		profileM.SupportProvider = &model.SupportProviderProfileModel{
			IdentityID:           data.IdentityID,
			LookingToEarn:        sp.LookingToEarn,
			Rating:               sp.Rating,
			Kosher:               sp.Kosher,
			AccessibleFacilities: sp.AccessibleFacilities,
			ServiceHours:         sp.ServiceHours,
			AdditionalInfo:       sp.AdditionalInfo,
		}
	case data.Administrator != nil:
		profileM.Administrator = &model.AdministratorProfileModel{
			IdentityID: data.IdentityID,
			Department: string(data.Administrator.Department),
		}
	}

	return profileM
}
