package repositories

import (
	"context"

	"github.com/eventlane/eventlane/internal/database"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles message data access
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{pool: db.Pool}
}

func scanMessageRow(row rowScanner) (*models.Message, error) {
	var msg models.Message

	err := row.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Body, &msg.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &msg, nil
}

// Create persists a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, recipient_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, sender_id, recipient_id, body, created_at
	`

	return scanMessageRow(r.pool.QueryRow(ctx, query, msg.SenderID, msg.RecipientID, msg.Body))
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, body, created_at
		FROM messages
		WHERE id = $1
	`

	return scanMessageRow(r.pool.QueryRow(ctx, query, id))
}
