package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

var (
	ErrConversationNotFound      = errors.New("conversation not found")
	ErrPrivateConversationExists = errors.New("private conversation already exists")
)

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv models.Conversation, participants []models.Participant) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error)
	FindPrivate(ctx context.Context, userID int64, partnerID int64) (models.Conversation, error)
	CountOwnedGroups(ctx context.Context, ownerID int64) (int, error)
}

const conversationColumns = `id, kind, name, description, avatar_url, latitude, longitude, city, owner_id,
        is_public, is_active, is_archived, private_key, created_at, updated_at`

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// CreateConversation inserts the conversation and its initial participants atomically.
func (r *ConversationRepo) CreateConversation(ctx context.Context, conv models.Conversation, participants []models.Participant) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.Conversation
	err = tx.QueryRowxContext(ctx, `INSERT INTO conversations
        (kind, name, description, avatar_url, latitude, longitude, city, owner_id, is_public, is_active, is_archived, private_key, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, FALSE, $10, $11, $11)
        RETURNING `+conversationColumns,
		conv.Kind, conv.Name, conv.Description, conv.AvatarURL, conv.Latitude, conv.Longitude, conv.City,
		conv.OwnerID, conv.IsPublic, conv.PrivateKey, conv.CreatedAt).StructScan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Conversation{}, ErrPrivateConversationExists
		}
		return models.Conversation{}, err
	}

	for _, p := range participants {
		p.ConversationID = created.ID
		if _, err = tx.NamedExecContext(ctx, insertParticipantSQL, p); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return created, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// FindPrivate returns the private chat between two users, in either order.
func (r *ConversationRepo) FindPrivate(ctx context.Context, userID int64, partnerID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE private_key=$1`, models.PrivatePairKey(userID, partnerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// CountOwnedGroups counts the groups owned by a user.
func (r *ConversationRepo) CountOwnedGroups(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM conversations WHERE kind='GROUP' AND owner_id=$1`, ownerID)
	return count, err
}
