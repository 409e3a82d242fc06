package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Named policies for the protected route classes.
const (
	PolicyAuth    = "auth"
	PolicyAPI     = "api"
	PolicyUpload  = "upload"
	PolicyDefault = "default"
)

// Policy is a named quota/window pair.
type Policy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// DefaultPolicies returns the built-in quotas. Callers may override any
// of them via NewLimiter.
func DefaultPolicies() []Policy {
	return []Policy{
		{Name: PolicyAuth, Limit: 5, Window: 15 * time.Minute},
		{Name: PolicyAPI, Limit: 100, Window: 1 * time.Hour},
		{Name: PolicyUpload, Limit: 10, Window: 1 * time.Hour},
		{Name: PolicyDefault, Limit: 20, Window: 1 * time.Minute},
	}
}

// Decision is the outcome of a limit check. Denials are expected,
// user-facing outcomes, not errors.
type Decision struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds a denied caller should wait,
// rounded up.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}

// Limiter answers "is this identifier over its quota for this window"
// for named policies, backed by a CounterStore.
type Limiter struct {
	store    CounterStore
	policies map[string]Policy
	logger   *slog.Logger
}

// NewLimiter creates a limiter with the default policies, replaced by
// any overrides carrying the same name.
func NewLimiter(store CounterStore, logger *slog.Logger, overrides ...Policy) *Limiter {
	policies := make(map[string]Policy)
	for _, p := range DefaultPolicies() {
		policies[p.Name] = p
	}
	for _, p := range overrides {
		if p.Limit > 0 && p.Window > 0 {
			policies[p.Name] = p
		}
	}

	return &Limiter{
		store:    store,
		policies: policies,
		logger:   logger,
	}
}

// Policy returns the quota for a policy name, falling back to the
// default policy for unknown names.
func (l *Limiter) Policy(name string) Policy {
	if p, ok := l.policies[name]; ok {
		return p
	}
	return l.policies[PolicyDefault]
}

// Check increments the counter for (policy, identifier) and decides
// whether the caller is within quota. A store error is an
// infrastructure failure, never a denial: the request is allowed and
// the error logged.
func (l *Limiter) Check(ctx context.Context, policyName, identifier string) Decision {
	p := l.Policy(policyName)

	win, err := l.store.Increment(ctx, p.Name+":"+identifier, p.Window)
	if err != nil {
		l.logger.Warn("rate limit check degraded, allowing request",
			slog.String("policy", p.Name),
			slog.String("identifier", identifier),
			slog.Any("error", err))
		return Decision{Allowed: true, Remaining: p.Limit, ResetAt: time.Now().Add(p.Window)}
	}

	remaining := p.Limit - win.Count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   win.Count <= p.Limit,
		Remaining: remaining,
		ResetAt:   win.ResetAt,
	}
}
