package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredTokenCleaner removes verification tokens past their expiry
type ExpiredTokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// StaleReportCounter counts reports stuck awaiting review
type StaleReportCounter interface {
	CountPendingOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// staleReportAge is how long a report may sit in PENDING_REVIEW before
// the cleanup pass starts warning about it.
const staleReportAge = 72 * time.Hour

// CleanupManager periodically removes expired verification tokens from
// the database and surfaces reports the review queue has left behind.
// Token expiry is enforced at read time, so the purge is storage
// hygiene, not correctness.
type CleanupManager struct {
	tokens   ExpiredTokenCleaner
	reports  StaleReportCounter
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(tokens ExpiredTokenCleaner, reports StaleReportCounter, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		tokens:   tokens,
		reports:  reports,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.tokens.CleanupExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}

	stale, err := cm.reports.CountPendingOlderThan(cleanupCtx, time.Now().Add(-staleReportAge))
	if err != nil {
		cm.logger.Error("failed to count stale reports", slog.Any("error", err))
		return
	}

	if stale > 0 {
		cm.logger.Warn("reports awaiting review past the staleness threshold",
			slog.Int("count", stale),
			slog.Duration("threshold", staleReportAge))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
