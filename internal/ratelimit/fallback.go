package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// FallbackStore degrades gracefully when the shared cache is down: any
// error from the primary store causes the call to be transparently
// re-issued against the in-process fallback, for that call only. The
// caller never sees an infrastructure error, so a cache outage can
// never produce a false "not allowed" result.
type FallbackStore struct {
	primary  CounterStore
	fallback CounterStore
	logger   *slog.Logger
}

// NewFallbackStore wraps primary with a per-call fallback.
func NewFallbackStore(primary, fallback CounterStore, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Increment tries the primary backend first and falls back on any error.
func (s *FallbackStore) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	win, err := s.primary.Increment(ctx, key, window)
	if err == nil {
		return win, nil
	}

	s.logger.Warn("shared counter store unavailable, using in-process fallback",
		slog.String("key", key),
		slog.Any("error", err))

	return s.fallback.Increment(ctx, key, window)
}
