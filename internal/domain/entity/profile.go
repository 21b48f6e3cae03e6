package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProfileKind tags which role-specific payload a Profile carries.
type ProfileKind string

const (
	ProfileKindCivilian        ProfileKind = "civilian"
	ProfileKindSupportProvider ProfileKind = "support_provider"
	ProfileKindAdministrator   ProfileKind = "administrator"
)

// IsValid checks if the ProfileKind is a valid value.
func (k ProfileKind) IsValid() bool {
	switch k {
	case ProfileKindCivilian, ProfileKindSupportProvider, ProfileKindAdministrator:
		return true
	default:
		return false
	}
}

// IDType is the kind of identification document a profile was registered with.
type IDType string

const (
	IDTypeIsraeliID IDType = "israeli_id"
	IDTypePassport  IDType = "passport"
	IDTypeOther     IDType = "other"
)

// IsValid checks if the IDType is a valid value.
func (t IDType) IsValid() bool {
	switch t {
	case IDTypeIsraeliID, IDTypePassport, IDTypeOther:
		return true
	default:
		return false
	}
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Department is the administrative area an Administrator is responsible for.
type Department string

const (
	DepartmentHR         Department = "HR"
	DepartmentIT         Department = "IT"
	DepartmentFinance    Department = "FIN"
	DepartmentMarketing  Department = "MKT"
	DepartmentOperations Department = "OPS"
)

// IsValid checks if the Department is a valid value.
func (d Department) IsValid() bool {
	switch d {
	case DepartmentHR, DepartmentIT, DepartmentFinance, DepartmentMarketing, DepartmentOperations:
		return true
	default:
		return false
	}
}

const maxAdditionalInfoLength = 250

// ProfileCommon holds the fields every profile variant shares.
type ProfileCommon struct {
	IdentificationNumber string
	IDType               IDType
	CountryOfIssue       string     // ISO 3166-1 alpha-2.
	Languages            []string   // Language codes, at least one.
	Address              string     // Plaintext in the domain; sealed before it is stored.
	PhoneNumber          string     // E.164.
	ProfilePicture       string     // Reference to an externally stored image.
	City                 string
	Country              string
	TermsAccepted        bool
	ActiveUntil          *time.Time // Optional end of the account's validity.
}

// CivilianDetails is the payload of a civilian profile.
type CivilianDetails struct {
	Gender     Gender
	Intentions []string // Intention codes, e.g. "shelter".
}

// SupportProviderDetails is the payload of a support provider profile.
type SupportProviderDetails struct {
	Categories           []string // Category names, at least one.
	LookingToEarn        bool
	Rating               int // 0 while unrated, otherwise 1-5.
	Kosher               bool
	AccessibleFacilities bool
	ServiceHours         string
	AdditionalInfo       string
}

// AdministratorDetails is the payload of an administrator profile.
type AdministratorDetails struct {
	Department Department
}

// Profile is the role-specific record attached 1:1 to an Identity.
// Exactly one payload pointer is set and it matches Kind.
type Profile struct {
	IdentityID      uuid.UUID
	Kind            ProfileKind
	Common          ProfileCommon
	Civilian        *CivilianDetails
	SupportProvider *SupportProviderDetails
	Administrator   *AdministratorDetails
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Relations returns the many-to-many sets of the profile.
func (p *Profile) Relations() ProfileRelations {
	rel := ProfileRelations{Languages: p.Common.Languages}
	switch p.Kind {
	case ProfileKindCivilian:
		if p.Civilian != nil {
			rel.Intentions = p.Civilian.Intentions
		}
	case ProfileKindSupportProvider:
		if p.SupportProvider != nil {
			rel.Categories = p.SupportProvider.Categories
		}
	case ProfileKindAdministrator:
	}

	return rel
}

// Validate checks the structural invariants of the profile and returns every violation found.
func (p *Profile) Validate(now time.Time) FieldErrors {
	errs := FieldErrors{}

	if !p.Kind.IsValid() {
		errs.Add("kind", "unknown profile kind")
	}
	if strings.TrimSpace(p.Common.IdentificationNumber) == "" {
		errs.Add("identification_number", "is required")
	}
	if !p.Common.IDType.IsValid() {
		errs.Add("id_type", "must be one of israeli_id, passport, other")
	}
	if strings.TrimSpace(p.Common.CountryOfIssue) == "" {
		errs.Add("country_of_issue", "is required")
	}
	if strings.TrimSpace(p.Common.PhoneNumber) == "" {
		errs.Add("phone_number", "is required")
	}
	if len(p.Common.Languages) == 0 {
		errs.Add("languages", "at least one language must be spoken")
	}
	if p.Common.ActiveUntil != nil && p.Common.ActiveUntil.Before(now) {
		errs.Add("active_until", "cannot be in the past")
	}

	p.validatePayload(errs)

	return errs
}

func (p *Profile) validatePayload(errs FieldErrors) {
	payloads := 0
	if p.Civilian != nil {
		payloads++
	}
	if p.SupportProvider != nil {
		payloads++
	}
	if p.Administrator != nil {
		payloads++
	}
	if payloads != 1 {
		errs.Add("kind", "exactly one role payload is required")

		return
	}

	switch p.Kind {
	case ProfileKindCivilian:
		if p.Civilian == nil {
			errs.Add("kind", "civilian payload is missing")

			return
		}
		if p.Civilian.Gender != GenderMale && p.Civilian.Gender != GenderFemale {
			errs.Add("gender", "must be male or female")
		}
	case ProfileKindSupportProvider:
		sp := p.SupportProvider
		if sp == nil {
			errs.Add("kind", "support provider payload is missing")

			return
		}
		if len(sp.Categories) == 0 {
			errs.Add("categories", "at least one category must be selected")
		}
		if sp.Rating != 0 && (sp.Rating < 1 || sp.Rating > 5) {
			errs.Add("rating", "must be between 1 and 5")
		}
		if len(sp.AdditionalInfo) > maxAdditionalInfoLength {
			errs.Add("additional_info", "is too long")
		}
	case ProfileKindAdministrator:
		if p.Administrator == nil {
			errs.Add("kind", "administrator payload is missing")

			return
		}
		if !p.Administrator.Department.IsValid() {
			errs.Add("department", "is required")
		}
	}
}

// ProfileRelations are the many-to-many sets populated after the profile row exists.
type ProfileRelations struct {
	Languages  []string
	Intentions []string
	Categories []string
}
