package repositories

import (
	"context"
	"fmt"

	"github.com/eventlane/eventlane/internal/database"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository handles verification token data access
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{pool: db.Pool}
}

func scanTokenRow(row rowScanner) (*models.VerificationToken, error) {
	var token models.VerificationToken

	err := row.Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.Type,
		&token.ExpiresAt, &token.UsedAt, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &token, nil
}

const tokenColumns = `id, user_id, token_hash, type, expires_at, used_at, created_at`

// Create persists a new verification token
func (r *TokenRepository) Create(ctx context.Context, token *models.VerificationToken) (*models.VerificationToken, error) {
	query := `
		INSERT INTO verification_tokens (user_id, token_hash, type, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + tokenColumns

	created, err := scanTokenRow(r.pool.QueryRow(ctx, query,
		token.UserID, token.TokenHash, token.Type, token.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	return created, nil
}

// DeleteUnusedByUserAndType removes prior unused tokens so the newest
// issue is the only redeemable one ("latest wins" invalidation).
func (r *TokenRepository) DeleteUnusedByUserAndType(ctx context.Context, userID string, tokenType models.TokenType) error {
	query := `
		DELETE FROM verification_tokens
		WHERE user_id = $1 AND type = $2 AND used_at IS NULL
	`

	_, err := r.pool.Exec(ctx, query, userID, tokenType)
	if err != nil {
		return fmt.Errorf("failed to delete unused tokens: %w", err)
	}

	return nil
}

// Consume redeems a token exactly once. Marking the token used and
// reading back its owner are one conditional UPDATE, so two concurrent
// redemptions of the same token cannot both succeed. Expired or
// already-used tokens do not match the predicate and are left
// untouched (ErrNotFound).
func (r *TokenRepository) Consume(ctx context.Context, tokenHash string, tokenType models.TokenType) (*models.VerificationToken, error) {
	query := `
		UPDATE verification_tokens
		SET used_at = NOW()
		WHERE token_hash = $1 AND type = $2 AND used_at IS NULL AND expires_at > NOW()
		RETURNING ` + tokenColumns

	return scanTokenRow(r.pool.QueryRow(ctx, query, tokenHash, tokenType))
}

// CleanupExpired deletes rows past their expiry, purely for storage
// hygiene; validity never depends on this sweep.
func (r *TokenRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM verification_tokens WHERE expires_at < NOW()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
