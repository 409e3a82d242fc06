package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// erroringStore simulates a counter backend outage
type erroringStore struct{}

func (erroringStore) Increment(context.Context, string, time.Duration) (Window, error) {
	return Window{}, errors.New("backend unavailable")
}

func TestLimiter_AllowsWithinQuota(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(testLogger()), testLogger(),
		Policy{Name: PolicyDefault, Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		d := limiter.Check(context.Background(), PolicyDefault, "client")
		assert.True(t, d.Allowed, "request %d should be within quota", i+1)
	}
}

func TestLimiter_DeniesOverQuota(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(testLogger()), testLogger(),
		Policy{Name: PolicyDefault, Limit: 2, Window: time.Minute})

	limiter.Check(context.Background(), PolicyDefault, "client")
	limiter.Check(context.Background(), PolicyDefault, "client")
	d := limiter.Check(context.Background(), PolicyDefault, "client")

	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.True(t, d.ResetAt.After(time.Now()))
}

func TestLimiter_RemainingCountsDown(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(testLogger()), testLogger(),
		Policy{Name: PolicyAPI, Limit: 5, Window: time.Hour})

	for want := int64(4); want >= 0; want-- {
		d := limiter.Check(context.Background(), PolicyAPI, "client")
		assert.Equal(t, want, d.Remaining)
	}
}

func TestLimiter_UnknownPolicyFallsBackToDefault(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(testLogger()), testLogger())

	p := limiter.Policy("no-such-policy")
	assert.Equal(t, PolicyDefault, p.Name)
}

func TestLimiter_StoreErrorAllowsRequest(t *testing.T) {
	limiter := NewLimiter(erroringStore{}, testLogger())

	d := limiter.Check(context.Background(), PolicyAuth, "client")
	assert.True(t, d.Allowed, "an infrastructure failure must not deny traffic")
}

func TestDecision_RetryAfterRoundsUp(t *testing.T) {
	now := time.Now()
	d := Decision{ResetAt: now.Add(1500 * time.Millisecond)}
	assert.Equal(t, 2, d.RetryAfter(now))

	d = Decision{ResetAt: now.Add(-time.Second)}
	assert.Equal(t, 0, d.RetryAfter(now), "past reset clamps to zero")
}

func TestDefaultPolicies(t *testing.T) {
	byName := make(map[string]Policy)
	for _, p := range DefaultPolicies() {
		byName[p.Name] = p
	}

	assert.Equal(t, int64(5), byName[PolicyAuth].Limit)
	assert.Equal(t, 15*time.Minute, byName[PolicyAuth].Window)
	assert.Equal(t, int64(100), byName[PolicyAPI].Limit)
	assert.Equal(t, time.Hour, byName[PolicyAPI].Window)
	assert.Equal(t, int64(10), byName[PolicyUpload].Limit)
	assert.Equal(t, int64(20), byName[PolicyDefault].Limit)
}
