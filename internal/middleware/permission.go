package middleware

import (
	"context"
	"net/http"

	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/services"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
)

// PermissionChecker answers whether an account may perform an action
// given its active restrictions.
type PermissionChecker interface {
	CanPerform(ctx context.Context, userID string, action models.Action) (services.PermissionDecision, error)
}

// RequireAction blocks requests from accounts whose active restrictions
// cover the given action. Must run after auth.Middleware.
func RequireAction(checker PermissionChecker, action models.Action) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			decision, err := checker.CanPerform(r.Context(), claims.UserID, action)
			if err != nil {
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if !decision.CanPerform {
				pkghttp.WriteRestricted(w, decision.Reason, "this action is not available for your account")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
