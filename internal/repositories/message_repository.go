package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts the append-only message ledger.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID int64) (models.Message, error)
	ListMessages(ctx context.Context, conversationID int64, after *time.Time) ([]models.Message, error)
	LatestMessage(ctx context.Context, conversationID int64, after *time.Time) (models.Message, error)
	MarkRecalled(ctx context.Context, messageID int64) error
	DeleteForAll(ctx context.Context, messageID int64, senderID int64) error
}

const messageColumns = `id, conversation_id, sender_id, content, media_url, message_type, reply_to_id, is_recalled, is_deleted, created_at`

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message and returns the stored row.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var created models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages
        (conversation_id, sender_id, content, media_url, message_type, reply_to_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+messageColumns,
		msg.ConversationID, msg.SenderID, msg.Content, msg.MediaURL, msg.Type, msg.ReplyToID, msg.CreatedAt).StructScan(&created)
	return created, err
}

// GetMessage fetches a message by id, including recalled and deleted rows.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListMessages returns non-deleted messages in creation order, optionally only those created after a cutoff.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID int64, after *time.Time) ([]models.Message, error) {
	var list []models.Message
	err := r.db.SelectContext(ctx, &list, `SELECT `+messageColumns+` FROM messages
        WHERE conversation_id=$1 AND is_deleted = FALSE AND ($2::timestamptz IS NULL OR created_at > $2)
        ORDER BY created_at ASC, id ASC`, conversationID, after)
	return list, err
}

// LatestMessage returns the newest non-deleted message after the optional cutoff.
func (r *MessageRepo) LatestMessage(ctx context.Context, conversationID int64, after *time.Time) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages
        WHERE conversation_id=$1 AND is_deleted = FALSE AND ($2::timestamptz IS NULL OR created_at > $2)
        ORDER BY created_at DESC, id DESC LIMIT 1`, conversationID, after)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkRecalled flags a message as recalled. The stored content is kept for reply previews.
func (r *MessageRepo) MarkRecalled(ctx context.Context, messageID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_recalled = TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	return requireAffected(count, err, ErrMessageNotFound)
}

// DeleteForAll soft deletes a message if it belongs to senderID.
func (r *MessageRepo) DeleteForAll(ctx context.Context, messageID int64, senderID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_deleted = TRUE WHERE id=$1 AND sender_id=$2`, messageID, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	return requireAffected(count, err, ErrMessageNotFound)
}
