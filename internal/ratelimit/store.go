package ratelimit

import (
	"context"
	"time"
)

// Window is the observed state of a counter after an increment: how
// many hits the current window has seen, and when it resets.
type Window struct {
	Count   int64
	ResetAt time.Time
}

// CounterStore is an increment-with-expiry primitive. Increment must be
// atomic per key: concurrent callers never lose an increment, and the
// first call past ResetAt resets the count to 1 with a fresh window in
// the same step.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (Window, error)
}
