package repositories

import (
	"context"
	"fmt"

	"github.com/eventlane/eventlane/internal/database"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles user data access
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

func scanUserRow(row rowScanner) (*models.User, error) {
	var user models.User

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.EmailVerified, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, name, role, email_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, password_hash, name, email_verified, role, created_at, updated_at
	`

	created, err := scanUserRow(r.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, user.Name, user.Role, user.EmailVerified))
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, name, email_verified, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, name, email_verified, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// MarkEmailVerified sets the email verification flag
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdatePasswordHash replaces the user's password hash
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
