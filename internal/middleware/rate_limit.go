package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/ratelimit"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
)

// RateLimit enforces the named policy for each request. The client key is
// the authenticated user ID when present, the client IP otherwise, so
// shared NATs don't burn an authenticated user's quota.
//
// X-RateLimit headers are set on every response, allowed or denied;
// denials additionally get Retry-After and a 429 body.
func RateLimit(limiter *ratelimit.Limiter, policyName string, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := pkghttp.ClientIdentifier(r, ipConfig)
			if claims := auth.GetUserFromContext(r); claims != nil {
				identifier = claims.UserID
			}

			decision := limiter.Check(r.Context(), policyName, identifier)

			policy := limiter.Policy(policyName)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(policy.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				pkghttp.WriteRateLimited(w, int64(decision.RetryAfter(time.Now())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GlobalBurstGuard is a coarse per-IP backstop in front of the policy
// limiters, for traffic that never reaches a named policy.
func GlobalBurstGuard(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteRateLimited(w, 60)
		}),
	)
}
