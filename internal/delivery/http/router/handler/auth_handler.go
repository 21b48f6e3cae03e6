// Package handler contains the HTTP handlers for the account API.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/delivery/http/response"
	"rachel/internal/domain/entity"
	"rachel/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	RegistrationUC usecase.RegistrationUsecase
	AuthUC         usecase.AuthUsecase
	Logger         *slog.Logger
}

// AuthHandler serves registration and login.
type AuthHandler struct {
	registrationUC usecase.RegistrationUsecase
	authUC         usecase.AuthUsecase
	logger         *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		registrationUC: params.RegistrationUC,
		authUC:         params.AuthUC,
		logger:         params.Logger,
	}
}

// RegisterRequest is the body of a registration. Exactly one role payload matching role is expected.
type RegisterRequest struct {
	Role                 string                  `json:"role" validate:"required,oneof=civilian support_provider administrator"`
	Username             string                  `json:"username" validate:"required,min=3,max=150"`
	Email                string                  `json:"email" validate:"required,email,max=254"`
	Password             string                  `json:"password" validate:"required"`
	IdentificationNumber string                  `json:"identification_number" validate:"required,max=50"`
	IDType               string                  `json:"id_type" validate:"required,oneof=israeli_id passport other"`
	CountryOfIssue       string                  `json:"country_of_issue" validate:"required,iso3166_1_alpha2"`
	Languages            []string                `json:"languages"`
	Address              string                  `json:"address" validate:"max=255"`
	PhoneNumber          string                  `json:"phone_number" validate:"required,e164"`
	ProfilePicture       string                  `json:"profile_picture" validate:"max=255"`
	City                 string                  `json:"city" validate:"max=100"`
	Country              string                  `json:"country" validate:"max=100"`
	TermsAccepted        bool                    `json:"terms_accepted"`
	ActiveUntil          *time.Time              `json:"active_until"`
	Civilian             *CivilianPayload        `json:"civilian"`
	SupportProvider      *SupportProviderPayload `json:"support_provider"`
	Administrator        *AdministratorPayload   `json:"administrator"`
}

func (r *RegisterRequest) toInput(address string) *usecase.RegistrationInput {
	input := &usecase.RegistrationInput{
		Role:     entity.Role(r.Role),
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Profile: entity.ProfileCommon{
			IdentificationNumber: r.IdentificationNumber,
			IDType:               entity.IDType(r.IDType),
			CountryOfIssue:       r.CountryOfIssue,
			Languages:            r.Languages,
			Address:              strings.TrimSpace(r.Address),
			PhoneNumber:          r.PhoneNumber,
			ProfilePicture:       r.ProfilePicture,
			City:                 r.City,
			Country:              r.Country,
			TermsAccepted:        r.TermsAccepted,
			ActiveUntil:          r.ActiveUntil,
		},
		SourceAddress: address,
	}

	if r.Civilian != nil {
		input.Civilian = &entity.CivilianDetails{
			Gender:     entity.Gender(r.Civilian.Gender),
			Intentions: r.Civilian.Intentions,
		}
	}
	if sp := r.SupportProvider; sp != nil {
		input.Provider = &entity.SupportProviderDetails{
			Categories:           sp.Categories,
			LookingToEarn:        sp.LookingToEarn,
			Rating:               sp.Rating,
			Kosher:               sp.Kosher,
			AccessibleFacilities: sp.AccessibleFacilities,
			ServiceHours:         sp.ServiceHours,
			AdditionalInfo:       sp.AdditionalInfo,
		}
	}
	if r.Administrator != nil {
		input.Administrator = &entity.AdministratorDetails{Department: entity.Department(r.Administrator.Department)}
	}

	return input
}

// Register handles account registration. New accounts are inactive until an administrator activates them.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	identity, err := h.registrationUC.Register(c.Request().Context(), req.toInput(deliverycontext.GetSourceAddress(c)))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newIdentityResponse(identity))
}

// LoginRequest is the body of a login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token.
type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Identity    *IdentityResponse `json:"identity"`
}

// Login handles a login attempt. Every attempt is recorded against the caller's source address.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.authUC.Login(c.Request().Context(), &usecase.LoginInput{
		Username:      req.Username,
		Password:      req.Password,
		SourceAddress: deliverycontext.GetSourceAddress(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &LoginResponse{
		AccessToken: output.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   output.ExpiresAt,
		Identity:    newIdentityResponse(output.Identity),
	})
}
