package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/delivery/http/response"
	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// PasswordResetHandlerParams holds dependencies for PasswordResetHandler, injected by Fx.
type PasswordResetHandlerParams struct {
	fx.In

	ResetUC usecase.PasswordResetUsecase
	Logger  *slog.Logger
}

// PasswordResetHandler serves the self-service reset flow.
type PasswordResetHandler struct {
	resetUC usecase.PasswordResetUsecase
	logger  *slog.Logger
}

// NewPasswordResetHandler is the constructor for PasswordResetHandler.
func NewPasswordResetHandler(params PasswordResetHandlerParams) *PasswordResetHandler {
	return &PasswordResetHandler{
		resetUC: params.ResetUC,
		logger:  params.Logger,
	}
}

// ResetRequest asks for a reset link to be emailed.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmResetRequest completes a reset with the values from the emailed link.
type ConfirmResetRequest struct {
	Reference string `json:"reference" validate:"required"`
	Token     string `json:"token" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

const resetRequestedMessage = "If the address belongs to an account, a reset link has been sent"

// RequestReset emails a reset link. The response is the same whether or not the email is known.
func (h *PasswordResetHandler) RequestReset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid password reset input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	if err := h.resetUC.RequestResetByEmail(c.Request().Context(), req.Email, deliverycontext.GetSourceAddress(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusAccepted, &MessageResponse{Message: resetRequestedMessage})
}

// ConfirmReset consumes the token and sets the new password.
func (h *PasswordResetHandler) ConfirmReset(c echo.Context) error {
	var req ConfirmResetRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid password reset input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	identityID, err := entity.ParseExternalRef(req.Reference)
	if err != nil {
		return errors.WithStack(domainerrors.ErrResetTokenInvalid)
	}

	err = h.resetUC.CompleteReset(c.Request().Context(), identityID, req.Token, req.Password, deliverycontext.GetSourceAddress(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &MessageResponse{Message: "Password updated"})
}
