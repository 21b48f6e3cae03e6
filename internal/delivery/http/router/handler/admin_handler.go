package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/delivery/http/response"
	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AdminHandlerParams holds dependencies for AdminHandler, injected by Fx.
type AdminHandlerParams struct {
	fx.In

	AdminUC usecase.AdminUsecase
	Logger  *slog.Logger
}

// AdminHandler serves account management for administrators.
type AdminHandler struct {
	adminUC usecase.AdminUsecase
	logger  *slog.Logger
}

// NewAdminHandler is the constructor for AdminHandler.
func NewAdminHandler(params AdminHandlerParams) *AdminHandler {
	return &AdminHandler{
		adminUC: params.AdminUC,
		logger:  params.Logger,
	}
}

// LockoutStatusResponse reports whether a username or address is locked out.
type LockoutStatusResponse struct {
	Subject string `json:"subject"`
	Locked  bool   `json:"locked"`
}

// Activate enables an identity.
func (h *AdminHandler) Activate(c echo.Context) error {
	return h.withTarget(c, func(actorID, identityID uuid.UUID) error {
		return h.adminUC.ActivateIdentity(c.Request().Context(), actorID, identityID, deliverycontext.GetSourceAddress(c))
	}, "Identity activated")
}

// Deactivate disables an identity.
func (h *AdminHandler) Deactivate(c echo.Context) error {
	return h.withTarget(c, func(actorID, identityID uuid.UUID) error {
		return h.adminUC.DeactivateIdentity(c.Request().Context(), actorID, identityID, deliverycontext.GetSourceAddress(c))
	}, "Identity deactivated")
}

// InitiatePasswordReset emails a reset link to the identity on an administrator's behalf.
func (h *AdminHandler) InitiatePasswordReset(c echo.Context) error {
	return h.withTarget(c, func(actorID, identityID uuid.UUID) error {
		return h.adminUC.InitiatePasswordReset(c.Request().Context(), actorID, identityID, deliverycontext.GetSourceAddress(c))
	}, "Password reset link sent")
}

// OverrideResetQuota clears the identity's reset request counter.
func (h *AdminHandler) OverrideResetQuota(c echo.Context) error {
	return h.withTarget(c, func(actorID, identityID uuid.UUID) error {
		return h.adminUC.OverrideResetQuota(c.Request().Context(), actorID, identityID)
	}, "Password reset quota cleared")
}

// LockoutStatus reports whether the username or source address in the path is locked out.
func (h *AdminHandler) LockoutStatus(c echo.Context) error {
	actorID, subject, err := h.subject(c)
	if err != nil {
		return err
	}

	locked, err := h.adminUC.IsLockedOut(c.Request().Context(), actorID, subject)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &LockoutStatusResponse{Subject: subject, Locked: locked})
}

// ClearLockout lifts the lockout of the username or source address in the path.
func (h *AdminHandler) ClearLockout(c echo.Context) error {
	actorID, subject, err := h.subject(c)
	if err != nil {
		return err
	}

	if err := h.adminUC.ClearLockout(c.Request().Context(), actorID, subject); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &MessageResponse{Message: "Lockout cleared"})
}

func (h *AdminHandler) withTarget(c echo.Context, action func(actorID, identityID uuid.UUID) error, message string) error {
	actorID, ok := deliverycontext.GetIdentityID(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	identityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid identity ID")
	}

	if err := action(actorID, identityID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &MessageResponse{Message: message})
}

func (h *AdminHandler) subject(c echo.Context) (uuid.UUID, string, error) {
	actorID, ok := deliverycontext.GetIdentityID(c)
	if !ok {
		return uuid.Nil, "", errors.WithStack(domainerrors.ErrUnauthorized)
	}

	subject, err := url.PathUnescape(c.Param("subject"))
	if err != nil || strings.TrimSpace(subject) == "" {
		return uuid.Nil, "", domainerrors.NewValidationError(entity.FieldErrors{"subject": "a username or address is required"})
	}

	return actorID, strings.TrimSpace(subject), nil
}
