package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/eventlane/eventlane/internal/database"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RestrictionRepository handles user restriction data access
type RestrictionRepository struct {
	pool *pgxpool.Pool
}

// NewRestrictionRepository creates a new RestrictionRepository
func NewRestrictionRepository(db *database.DB) *RestrictionRepository {
	return &RestrictionRepository{pool: db.Pool}
}

func scanRestrictionRow(row rowScanner) (*models.UserRestriction, error) {
	var r models.UserRestriction
	var expiresAt, removedAt *time.Time
	var removedBy, removalReason *string

	err := row.Scan(
		&r.ID, &r.UserID, &r.Type, &r.Reason, &expiresAt, &r.IsActive,
		&removedBy, &removedAt, &removalReason, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	r.ExpiresAt = expiresAt
	r.RemovedBy = removedBy
	r.RemovedAt = removedAt
	r.RemovalReason = removalReason
	return &r, nil
}

const restrictionColumns = `id, user_id, type, reason, expires_at, is_active,
	removed_by, removed_at, removal_reason, created_at, updated_at`

// applyQuery merges a new restriction into the single active row per
// (user, type), guaranteed by a partial unique index. The whole
// extend-or-insert decision is one conditional statement so two
// concurrent applies cannot duplicate the row, and an active expiry is
// only ever moved later (or upgraded to permanent), never shortened.
const applyQuery = `
	INSERT INTO user_restrictions (user_id, type, reason, expires_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, type) WHERE is_active DO UPDATE
	SET reason = EXCLUDED.reason,
	    expires_at = CASE
	        WHEN EXCLUDED.expires_at IS NULL THEN NULL
	        WHEN user_restrictions.expires_at IS NULL THEN NULL
	        WHEN EXCLUDED.expires_at > user_restrictions.expires_at THEN EXCLUDED.expires_at
	        ELSE user_restrictions.expires_at
	    END,
	    updated_at = NOW()
	RETURNING ` + restrictionColumns

// Apply inserts a restriction or extends the active one of the same type
func (r *RestrictionRepository) Apply(ctx context.Context, restriction *models.UserRestriction) (*models.UserRestriction, error) {
	return r.apply(ctx, r.pool, restriction)
}

// ApplyTx applies a restriction inside an existing transaction
func (r *RestrictionRepository) ApplyTx(ctx context.Context, tx pgx.Tx, restriction *models.UserRestriction) (*models.UserRestriction, error) {
	return r.apply(ctx, tx, restriction)
}

func (r *RestrictionRepository) apply(ctx context.Context, q database.Querier, restriction *models.UserRestriction) (*models.UserRestriction, error) {
	applied, err := scanRestrictionRow(q.QueryRow(ctx, applyQuery,
		restriction.UserID, restriction.Type, restriction.Reason, restriction.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("failed to apply restriction: %w", err)
	}

	return applied, nil
}

// GetByID retrieves a restriction by ID
func (r *RestrictionRepository) GetByID(ctx context.Context, id string) (*models.UserRestriction, error) {
	query := `SELECT ` + restrictionColumns + ` FROM user_restrictions WHERE id = $1`

	return scanRestrictionRow(r.pool.QueryRow(ctx, query, id))
}

// ListActiveByUser returns the restrictions currently in force for a
// user. Expiry is evaluated in the predicate; no write is needed for a
// restriction to lapse.
func (r *RestrictionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.UserRestriction, error) {
	query := `
		SELECT ` + restrictionColumns + `
		FROM user_restrictions
		WHERE user_id = $1
		  AND is_active
		  AND (expires_at IS NULL OR expires_at >= NOW())
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active restrictions: %w", err)
	}
	defer rows.Close()

	restrictions := make([]*models.UserRestriction, 0)
	for rows.Next() {
		restriction, err := scanRestrictionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan restriction: %w", err)
		}
		restrictions = append(restrictions, restriction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restriction rows: %w", err)
	}

	return restrictions, nil
}

// Remove soft-deletes a restriction by administrative override. Rows
// are never hard-deleted; the removal fields record who lifted it.
func (r *RestrictionRepository) Remove(ctx context.Context, id, removedBy, reason string) error {
	query := `
		UPDATE user_restrictions
		SET is_active = FALSE, removed_by = $2, removed_at = NOW(), removal_reason = $3, updated_at = NOW()
		WHERE id = $1 AND is_active
	`

	result, err := r.pool.Exec(ctx, query, id, removedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to remove restriction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
