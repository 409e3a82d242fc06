package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval bounds how long expired windows linger in memory.
const DefaultSweepInterval = 10 * time.Minute

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is the in-process counter table. It is the fallback
// backend when the shared cache is unavailable, and the only backend in
// single-instance deployments. All state is process-local.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	logger  *slog.Logger
}

// NewMemoryStore creates an empty in-process counter table.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		logger:  logger,
	}
}

// Increment bumps the counter for key, starting a fresh window when the
// key is new or its previous window has expired. The expiry check and
// the first increment of the new window happen under one lock, so a
// reset can never be observed separately from the increment.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Window, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &memoryEntry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return Window{Count: 1, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Window{Count: e.count, ResetAt: e.resetAt}, nil
}

// StartSweep periodically evicts entries whose window has passed. The
// sweep exists purely to bound memory: a live key is never evicted, and
// a stale key that survives until its next increment is reset lazily
// anyway.
func (s *MemoryStore) StartSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-ctx.Done():
			s.logger.Info("counter sweep stopped")
			return
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.entries {
		if now.After(e.resetAt) {
			delete(s.entries, key)
			evicted++
		}
	}

	if evicted > 0 {
		s.logger.Debug("evicted expired rate windows", slog.Int("count", evicted))
	}
}

// size is used by tests to observe sweep behavior.
func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
