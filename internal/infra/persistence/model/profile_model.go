package model

import (
	"time"

	"github.com/google/uuid"
)

// ProfileModel mirrors the 'profiles' table, which holds the fields shared by every profile kind.
// Phone numbers and identification triples are unique across all kinds.
type ProfileModel struct {
	IdentityID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind                 string    `gorm:"type:varchar(32);not null"`
	IdentificationNumber string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_profiles_identification,priority:1"`
	CountryOfIssue       string    `gorm:"type:varchar(2);not null;uniqueIndex:uq_profiles_identification,priority:2"`
	IDType               string    `gorm:"column:id_type;type:varchar(20);not null;uniqueIndex:uq_profiles_identification,priority:3"`
	// Address holds ciphertext only.
	Address        string `gorm:"type:text"`
	PhoneNumber    string `gorm:"type:varchar(20);not null;uniqueIndex:uq_profiles_phone_number"`
	ProfilePicture string `gorm:"type:varchar(255)"`
	City           string `gorm:"type:varchar(100)"`
	Country        string `gorm:"type:varchar(100)"`
	TermsAccepted  bool   `gorm:"not null;default:false"`
	ActiveUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Languages       []ProfileLanguageModel       `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	Civilian        *CivilianProfileModel        `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
	SupportProvider *SupportProviderProfileModel `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
	Administrator   *AdministratorProfileModel   `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (ProfileModel) TableName() string {
	return "profiles"
}

// CivilianProfileModel mirrors the 'civilian_profiles' table.
type CivilianProfileModel struct {
	IdentityID uuid.UUID                `gorm:"type:uuid;primaryKey"`
	Gender     string                   `gorm:"type:varchar(10);not null"`
	Intentions []CivilianIntentionModel `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (CivilianProfileModel) TableName() string {
	return "civilian_profiles"
}

// SupportProviderProfileModel mirrors the 'support_provider_profiles' table.
type SupportProviderProfileModel struct {
	IdentityID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	LookingToEarn        bool      `gorm:"not null;default:false"`
	Rating               int       `gorm:"not null;default:0;check:chk_support_provider_rating,rating BETWEEN 0 AND 5"`
	Kosher               bool      `gorm:"not null;default:false"`
	AccessibleFacilities bool      `gorm:"not null;default:false"`
	ServiceHours         string    `gorm:"type:varchar(100)"`
	AdditionalInfo       string    `gorm:"type:varchar(250)"`

	Categories []ProviderCategoryModel `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (SupportProviderProfileModel) TableName() string {
	return "support_provider_profiles"
}

// AdministratorProfileModel mirrors the 'administrator_profiles' table.
type AdministratorProfileModel struct {
	IdentityID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Department string    `gorm:"type:varchar(3);not null"`
}

// TableName explicitly sets the table name for GORM.
func (AdministratorProfileModel) TableName() string {
	return "administrator_profiles"
}
