package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/delivery/http/response"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ProfileHandlerParams holds dependencies for ProfileHandler, injected by Fx.
type ProfileHandlerParams struct {
	fx.In

	ProfileUC usecase.ProfileUsecase
	Logger    *slog.Logger
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profileUC usecase.ProfileUsecase
	logger    *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler.
func NewProfileHandler(params ProfileHandlerParams) *ProfileHandler {
	return &ProfileHandler{
		profileUC: params.ProfileUC,
		logger:    params.Logger,
	}
}

// UpdateContactRequest changes contact details. Omitted fields are left unchanged.
type UpdateContactRequest struct {
	Email       *string  `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber *string  `json:"phone_number" validate:"omitempty,e164"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	City        *string  `json:"city" validate:"omitempty,max=100"`
	Country     *string  `json:"country" validate:"omitempty,max=100"`
	Languages   []string `json:"languages" validate:"omitempty,min=1"`
}

// GetProfile returns the caller's profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	identityID, ok := deliverycontext.GetIdentityID(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	view, err := h.profileUC.GetProfile(c.Request().Context(), identityID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProfileResponse(view))
}

// UpdateContact changes the caller's contact details.
func (h *ProfileHandler) UpdateContact(c echo.Context) error {
	identityID, ok := deliverycontext.GetIdentityID(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	var req UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	view, err := h.profileUC.UpdateContact(c.Request().Context(), identityID, &usecase.UpdateContactInput{
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		Languages:   req.Languages,
	}, deliverycontext.GetSourceAddress(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProfileResponse(view))
}
