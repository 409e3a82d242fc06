package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventlane/eventlane/internal/database"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles moderation report data access
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{pool: db.Pool}
}

func scanReportRow(row rowScanner) (*models.ModerationReport, error) {
	var report models.ModerationReport
	var contentID, reviewedBy, resolutionNotes *string
	var reviewedAt *time.Time

	err := row.Scan(
		&report.ID, &report.ReporterID, &report.ReportedUserID, &contentID,
		&report.ContentType, &report.Reason, &report.FlaggedKeywords, &report.Severity,
		&report.Status, &report.IsAutomated, &reviewedBy, &resolutionNotes,
		&reviewedAt, &report.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	report.ContentID = contentID
	report.ReviewedBy = reviewedBy
	report.ResolutionNotes = resolutionNotes
	report.ReviewedAt = reviewedAt
	return &report, nil
}

const reportColumns = `id, reporter_id, reported_user_id, content_id, content_type,
	reason, flagged_keywords, severity, status, is_automated,
	reviewed_by, resolution_notes, reviewed_at, created_at`

// Create persists a new report in PENDING_REVIEW
func (r *ReportRepository) Create(ctx context.Context, report *models.ModerationReport) (*models.ModerationReport, error) {
	query := `
		INSERT INTO moderation_reports
			(reporter_id, reported_user_id, content_id, content_type, reason,
			 flagged_keywords, severity, is_automated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + reportColumns

	created, err := scanReportRow(r.pool.QueryRow(ctx, query,
		report.ReporterID, report.ReportedUserID, report.ContentID, report.ContentType,
		report.Reason, report.FlaggedKeywords, report.Severity, report.IsAutomated))
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return created, nil
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ModerationReport, error) {
	query := `SELECT ` + reportColumns + ` FROM moderation_reports WHERE id = $1`

	return scanReportRow(r.pool.QueryRow(ctx, query, id))
}

// CountAgainstUserSince counts reports filed against a user since the
// given time, regardless of review status.
func (r *ReportRepository) CountAgainstUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM moderation_reports
		WHERE reported_user_id = $1 AND created_at >= $2
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}

	return count, nil
}

// CountConfirmedViolationsTx counts the user's resolved reports whose
// resolution notes indicate a confirmed violation, inside an existing
// transaction so resolution-triggered escalation reads its own write.
func (r *ReportRepository) CountConfirmedViolationsTx(ctx context.Context, tx pgx.Tx, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM moderation_reports
		WHERE reported_user_id = $1
		  AND status = $2
		  AND resolution_notes ILIKE '%violation%'
	`

	var count int
	if err := tx.QueryRow(ctx, query, userID, models.ReportResolved).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count confirmed violations: %w", err)
	}

	return count, nil
}

// CountPendingOlderThan counts reports still awaiting first review that
// were filed before the cutoff.
func (r *ReportRepository) CountPendingOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM moderation_reports
		WHERE status = $1 AND created_at < $2
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, models.ReportPendingReview, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stale reports: %w", err)
	}

	return count, nil
}

// UpdateStatusTx advances a report's review status inside a
// transaction. The WHERE clause carries the expected current status so
// a concurrent reviewer cannot double-apply a transition.
func (r *ReportRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id string, from, to models.ReportStatus, reviewerID, notes string) (*models.ModerationReport, error) {
	query := `
		UPDATE moderation_reports
		SET status = $3, reviewed_by = $4, resolution_notes = $5, reviewed_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + reportColumns

	updated, err := scanReportRow(tx.QueryRow(ctx, query, id, from, to, reviewerID, notes))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Row exists but the status moved underneath us.
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("failed to update report status: %w", err)
	}

	return updated, nil
}

// ListByStatus returns reports in a given status, oldest first, for the
// review queue.
func (r *ReportRepository) ListByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]*models.ModerationReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM moderation_reports
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.ModerationReport, 0)
	for rows.Next() {
		report, err := scanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return reports, nil
}
