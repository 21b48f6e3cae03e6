package handler

import (
	"time"

	"rachel/internal/domain/entity"
	"rachel/internal/usecase"
)

// IdentityResponse is the public view of an identity. Credentials never leave the service.
type IdentityResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

func newIdentityResponse(identity *entity.Identity) *IdentityResponse {
	return &IdentityResponse{
		ID:        identity.ID.String(),
		Username:  identity.Username,
		Email:     identity.Email,
		IsActive:  identity.IsActive,
		Roles:     identity.Roles.ToStrings(),
		CreatedAt: identity.CreatedAt,
	}
}

// CivilianPayload is the civilian part of a registration or profile.
type CivilianPayload struct {
	Gender     string   `json:"gender" validate:"omitempty,oneof=male female"`
	Intentions []string `json:"intentions"`
}

// SupportProviderPayload is the support provider part of a registration or profile.
type SupportProviderPayload struct {
	Categories           []string `json:"categories"`
	LookingToEarn        bool     `json:"looking_to_earn"`
	Rating               int      `json:"rating" validate:"gte=0,lte=5"`
	Kosher               bool     `json:"kosher"`
	AccessibleFacilities bool     `json:"accessible_facilities"`
	ServiceHours         string   `json:"service_hours" validate:"max=100"`
	AdditionalInfo       string   `json:"additional_info"`
}

// AdministratorPayload is the administrator part of a registration or profile.
type AdministratorPayload struct {
	Department string `json:"department"`
}

// ProfileResponse is an identity with its decrypted profile.
type ProfileResponse struct {
	Identity             *IdentityResponse       `json:"identity"`
	Kind                 string                  `json:"kind"`
	IdentificationNumber string                  `json:"identification_number"`
	IDType               string                  `json:"id_type"`
	CountryOfIssue       string                  `json:"country_of_issue"`
	Languages            []string                `json:"languages"`
	Address              string                  `json:"address,omitempty"`
	PhoneNumber          string                  `json:"phone_number"`
	ProfilePicture       string                  `json:"profile_picture,omitempty"`
	City                 string                  `json:"city,omitempty"`
	Country              string                  `json:"country,omitempty"`
	ActiveUntil          *time.Time              `json:"active_until,omitempty"`
	Civilian             *CivilianPayload        `json:"civilian,omitempty"`
	SupportProvider      *SupportProviderPayload `json:"support_provider,omitempty"`
	Administrator        *AdministratorPayload   `json:"administrator,omitempty"`
}

func newProfileResponse(view *usecase.ProfileView) *ProfileResponse {
	common := view.Profile.Common
	resp := &ProfileResponse{
		Identity:             newIdentityResponse(view.Identity),
		Kind:                 string(view.Profile.Kind),
		IdentificationNumber: common.IdentificationNumber,
		IDType:               string(common.IDType),
		CountryOfIssue:       common.CountryOfIssue,
		Languages:            common.Languages,
		Address:              common.Address,
		PhoneNumber:          common.PhoneNumber,
		ProfilePicture:       common.ProfilePicture,
		City:                 common.City,
		Country:              common.Country,
		ActiveUntil:          common.ActiveUntil,
	}

	if c := view.Profile.Civilian; c != nil {
		resp.Civilian = &CivilianPayload{Gender: string(c.Gender), Intentions: c.Intentions}
	}
	if sp := view.Profile.SupportProvider; sp != nil {
		resp.SupportProvider = &SupportProviderPayload{
			Categories:           sp.Categories,
			LookingToEarn:        sp.LookingToEarn,
			Rating:               sp.Rating,
			Kosher:               sp.Kosher,
			AccessibleFacilities: sp.AccessibleFacilities,
			ServiceHours:         sp.ServiceHours,
			AdditionalInfo:       sp.AdditionalInfo,
		}
	}
	if a := view.Profile.Administrator; a != nil {
		resp.Administrator = &AdministratorPayload{Department: string(a.Department)}
	}

	return resp
}

// MessageResponse is returned by endpoints that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}
