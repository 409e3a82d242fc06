package repositories

import (
	"context"
	"fmt"

	"github.com/eventlane/eventlane/internal/database"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WarningRepository handles user warning data access. Warnings are
// append-only; there are no update or delete operations.
type WarningRepository struct {
	pool *pgxpool.Pool
}

// NewWarningRepository creates a new WarningRepository
func NewWarningRepository(db *database.DB) *WarningRepository {
	return &WarningRepository{pool: db.Pool}
}

func scanWarningRow(row rowScanner) (*models.UserWarning, error) {
	var w models.UserWarning

	err := row.Scan(&w.ID, &w.UserID, &w.Reason, &w.IssuedBy, &w.IsAutomated, &w.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &w, nil
}

// Create appends a warning to the user's permanent record
func (r *WarningRepository) Create(ctx context.Context, w *models.UserWarning) (*models.UserWarning, error) {
	return r.create(ctx, r.pool, w)
}

// CreateTx appends a warning inside an existing transaction
func (r *WarningRepository) CreateTx(ctx context.Context, tx pgx.Tx, w *models.UserWarning) (*models.UserWarning, error) {
	return r.create(ctx, tx, w)
}

func (r *WarningRepository) create(ctx context.Context, q database.Querier, w *models.UserWarning) (*models.UserWarning, error) {
	query := `
		INSERT INTO user_warnings (user_id, reason, issued_by, is_automated)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, reason, issued_by, is_automated, created_at
	`

	created, err := scanWarningRow(q.QueryRow(ctx, query, w.UserID, w.Reason, w.IssuedBy, w.IsAutomated))
	if err != nil {
		return nil, fmt.Errorf("failed to create warning: %w", err)
	}

	return created, nil
}

// CountByUser returns the all-time warning count for a user
func (r *WarningRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM user_warnings WHERE user_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count warnings: %w", err)
	}

	return count, nil
}

// ListByUser returns a user's warnings, newest first
func (r *WarningRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserWarning, error) {
	query := `
		SELECT id, user_id, reason, issued_by, is_automated, created_at
		FROM user_warnings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list warnings: %w", err)
	}
	defer rows.Close()

	warnings := make([]*models.UserWarning, 0)
	for rows.Next() {
		w, err := scanWarningRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating warning rows: %w", err)
	}

	return warnings, nil
}
