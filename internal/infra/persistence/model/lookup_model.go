package model

import "github.com/google/uuid"

// LanguageModel mirrors the 'languages' lookup table.
type LanguageModel struct {
	Code string `gorm:"type:varchar(10);primaryKey"`
	Name string `gorm:"type:varchar(50);not null"`
}

// TableName explicitly sets the table name for GORM.
func (LanguageModel) TableName() string {
	return "languages"
}

// IntentionModel mirrors the 'intentions' lookup table.
type IntentionModel struct {
	Code string `gorm:"type:varchar(32);primaryKey"`
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName explicitly sets the table name for GORM.
func (IntentionModel) TableName() string {
	return "intentions"
}

// CategoryModel mirrors the 'categories' lookup table.
type CategoryModel struct {
	Code string `gorm:"type:varchar(32);primaryKey"`
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName explicitly sets the table name for GORM.
func (CategoryModel) TableName() string {
	return "categories"
}

// ProfileLanguageModel mirrors the 'profile_languages' join table.
type ProfileLanguageModel struct {
	ProfileID    uuid.UUID     `gorm:"type:uuid;primaryKey"`
	LanguageCode string        `gorm:"type:varchar(10);primaryKey"`
	Language     LanguageModel `gorm:"foreignKey:LanguageCode;references:Code;constraint:OnDelete:RESTRICT"`
}

// TableName explicitly sets the table name for GORM.
func (ProfileLanguageModel) TableName() string {
	return "profile_languages"
}

// CivilianIntentionModel mirrors the 'civilian_intentions' join table.
type CivilianIntentionModel struct {
	ProfileID     uuid.UUID      `gorm:"type:uuid;primaryKey"`
	IntentionCode string         `gorm:"type:varchar(32);primaryKey"`
	Intention     IntentionModel `gorm:"foreignKey:IntentionCode;references:Code;constraint:OnDelete:RESTRICT"`
}

// TableName explicitly sets the table name for GORM.
func (CivilianIntentionModel) TableName() string {
	return "civilian_intentions"
}

// ProviderCategoryModel mirrors the 'support_provider_categories' join table.
type ProviderCategoryModel struct {
	ProfileID    uuid.UUID     `gorm:"type:uuid;primaryKey"`
	CategoryCode string        `gorm:"type:varchar(32);primaryKey"`
	Category     CategoryModel `gorm:"foreignKey:CategoryCode;references:Code;constraint:OnDelete:RESTRICT"`
}

// TableName explicitly sets the table name for GORM.
func (ProviderCategoryModel) TableName() string {
	return "support_provider_categories"
}

// Seed data for the lookup tables.
var (
	DefaultLanguages = []LanguageModel{
		{Code: "he", Name: "Hebrew"},
		{Code: "en", Name: "English"},
		{Code: "ar", Name: "Arabic"},
		{Code: "ru", Name: "Russian"},
		{Code: "fr", Name: "French"},
		{Code: "es", Name: "Spanish"},
		{Code: "am", Name: "Amharic"},
	}

	DefaultIntentions = []IntentionModel{
		{Code: "shelter", Name: "Shelter"},
		{Code: "food", Name: "Food"},
		{Code: "transport", Name: "Transport"},
		{Code: "medical", Name: "Medical assistance"},
		{Code: "childcare", Name: "Childcare"},
		{Code: "emotional_support", Name: "Emotional support"},
	}

	DefaultCategories = []CategoryModel{
		{Code: "housing", Name: "Housing"},
		{Code: "food", Name: "Food"},
		{Code: "transportation", Name: "Transportation"},
		{Code: "medical", Name: "Medical"},
		{Code: "childcare", Name: "Childcare"},
		{Code: "education", Name: "Education"},
		{Code: "emotional_support", Name: "Emotional support"},
		{Code: "legal", Name: "Legal advice"},
	}
)
