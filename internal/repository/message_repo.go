package repository

import (
	"context"
	"time"

	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// Between returns the messages exchanged by a and b, oldest first.
	Between(ctx context.Context, a, b string) ([]*models.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID string) error
	// Involving returns every message sent or received by the user, newest first.
	Involving(ctx context.Context, userID string) ([]*models.Message, error)
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Read, msg.CreatedAt)
	return err
}

func (r *messageRepository) Between(ctx context.Context, a, b string) ([]*models.Message, error) {
	msgs := []*models.Message{}
	query := `
		SELECT * FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at, id
	`
	err := r.db.SelectContext(ctx, &msgs, query, a, b)
	return msgs, err
}

func (r *messageRepository) MarkRead(ctx context.Context, senderID, receiverID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE WHERE sender_id = $1 AND receiver_id = $2 AND is_read = FALSE`,
		senderID, receiverID)
	return err
}

func (r *messageRepository) Involving(ctx context.Context, userID string) ([]*models.Message, error) {
	msgs := []*models.Message{}
	query := `
		SELECT * FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, id
	`
	err := r.db.SelectContext(ctx, &msgs, query, userID)
	return msgs, err
}
