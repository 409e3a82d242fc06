package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/handlers"
	"github.com/eventlane/eventlane/internal/middleware"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/ratelimit"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
)

// Dependencies carries everything route registration needs
type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	MessageHandler    *handlers.MessageHandler
	ModerationHandler *handlers.ModerationHandler
	TokenManager      *auth.TokenManager
	UserRepo          auth.UserRepository
	Permissions       middleware.PermissionChecker
	Limiter           *ratelimit.Limiter
	IPConfig          *pkghttp.IPConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	authLimit := middleware.RateLimit(deps.Limiter, ratelimit.PolicyAuth, deps.IPConfig)
	apiLimit := middleware.RateLimit(deps.Limiter, ratelimit.PolicyAPI, deps.IPConfig)

	// Public routes: the auth policy is keyed by client IP since there
	// is no authenticated identity yet
	router.Group(func(r chi.Router) {
		r.Use(authLimit)
		r.Post("/auth/register", deps.AuthHandler.Register)
		r.Post("/auth/login", deps.AuthHandler.Login)
		r.Post("/auth/verify-email", deps.AuthHandler.VerifyEmail)
		r.Post("/auth/password-reset", deps.AuthHandler.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", deps.AuthHandler.ResetPassword)
	})

	// Protected routes: authenticated, api policy keyed by user ID
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.TokenManager))
		r.Use(apiLimit)

		r.With(middleware.RequireAction(deps.Permissions, models.ActionSendMessage)).
			Post("/messages", deps.MessageHandler.Send)
		r.Get("/messages/{id}", deps.MessageHandler.Get)

		r.Post("/reports", deps.ModerationHandler.FileReport)
		r.Get("/moderation/standing", deps.ModerationHandler.MyStanding)

		// Admin-only review tooling
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(deps.UserRepo, "admin"))
			r.Get("/admin/reports", deps.ModerationHandler.ListReports)
			r.Post("/admin/reports/{id}/resolve", deps.ModerationHandler.ResolveReport)
			r.Delete("/admin/restrictions/{id}", deps.ModerationHandler.RemoveRestriction)
			r.Get("/admin/users/{id}/standing", deps.ModerationHandler.UserStanding)
		})
	})
}
