// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"net/http"

	"rachel/config"
	"rachel/internal/delivery/http/middleware"
	"rachel/internal/delivery/http/router/handler"
	"rachel/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// HealthPath is served outside the versioned API and skipped by the access log.
const HealthPath = "/healthz"

type RouterParams struct {
	fx.In

	AuthHandler          *handler.AuthHandler
	PasswordResetHandler *handler.PasswordResetHandler
	ProfileHandler       *handler.ProfileHandler
	AdminHandler         *handler.AdminHandler
	AuthMiddleware       *middleware.AuthMiddleware
	MetricsHandler       http.Handler `name:"metrics_handler" optional:"true"`
	Config               *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler          *handler.AuthHandler
	passwordResetHandler *handler.PasswordResetHandler
	profileHandler       *handler.ProfileHandler
	adminHandler         *handler.AdminHandler
	authMiddleware       *middleware.AuthMiddleware
	metricsHandler       http.Handler
	config               *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:          params.AuthHandler,
		passwordResetHandler: params.PasswordResetHandler,
		profileHandler:       params.ProfileHandler,
		adminHandler:         params.AdminHandler,
		authMiddleware:       params.AuthMiddleware,
		metricsHandler:       params.MetricsHandler,
		config:               params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET(HealthPath, handler.HealthCheck)

	if r.config.Metrics.Enabled && r.metricsHandler != nil {
		e.GET(r.config.Metrics.Path, echo.WrapHandler(r.metricsHandler))
	}

	apiV1 := e.Group("/api/v1")
	requireAdmin := []echo.MiddlewareFunc{
		r.authMiddleware.Authenticate,
		r.authMiddleware.RequireRole(entity.RoleAdministrator),
	}

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/password-reset", r.passwordResetHandler.RequestReset)
		authGroup.POST("/password-reset/confirm", r.passwordResetHandler.ConfirmReset)
		authGroup.GET("/lockout/:subject", r.adminHandler.LockoutStatus, requireAdmin...)
	}

	profileGroup := apiV1.Group("/profile")
	profileGroup.Use(r.authMiddleware.Authenticate)
	{
		profileGroup.GET("", r.profileHandler.GetProfile)
		profileGroup.PATCH("", r.profileHandler.UpdateContact)
	}

	adminGroup := apiV1.Group("/admin")
	adminGroup.Use(requireAdmin...)
	{
		adminGroup.POST("/identities/:id/activate", r.adminHandler.Activate)
		adminGroup.POST("/identities/:id/deactivate", r.adminHandler.Deactivate)
		adminGroup.POST("/identities/:id/password-reset", r.adminHandler.InitiatePasswordReset)
		adminGroup.POST("/identities/:id/reset-quota", r.adminHandler.OverrideResetQuota)
		adminGroup.DELETE("/lockouts/:subject", r.adminHandler.ClearLockout)
	}
}
