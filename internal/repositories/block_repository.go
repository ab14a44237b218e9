package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrBlockExists   = errors.New("block already exists")
)

// BlockRepository abstracts conversation-scoped blocks.
type BlockRepository interface {
	BlockParticipant(ctx context.Context, block models.Block) error
	GetBlock(ctx context.Context, key models.BlockKey) (models.Block, error)
	IsBlocked(ctx context.Context, key models.BlockKey) (bool, error)
	DeleteBlock(ctx context.Context, key models.BlockKey) error
	ListBlocks(ctx context.Context, conversationID int64) ([]models.Block, error)
}

const blockColumns = `conversation_id, blocked_user_id, blocker_user_id, reason, created_at`

// BlockRepo is a sqlx implementation of BlockRepository.
type BlockRepo struct {
	db *sqlx.DB
}

// NewBlockRepo constructs a BlockRepo.
func NewBlockRepo(db *sqlx.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// BlockParticipant removes the blocked user's participant record and records the block in one transaction.
// It fails with ErrParticipantNotFound if there is no record to remove and ErrBlockExists on a duplicate.
func (r *BlockRepo) BlockParticipant(ctx context.Context, block models.Block) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE conversation_id=$1 AND user_id=$2`, block.ConversationID, block.BlockedUserID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err = requireAffected(count, err, ErrParticipantNotFound); err != nil {
		return err
	}

	_, err = tx.NamedExecContext(ctx, `INSERT INTO conversation_blocks (`+blockColumns+`)
        VALUES (:conversation_id, :blocked_user_id, :blocker_user_id, :reason, :created_at)`, block)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrBlockExists
		}
		return err
	}
	return tx.Commit()
}

// GetBlock fetches one block.
func (r *BlockRepo) GetBlock(ctx context.Context, key models.BlockKey) (models.Block, error) {
	var block models.Block
	err := r.db.GetContext(ctx, &block, `SELECT `+blockColumns+` FROM conversation_blocks
        WHERE conversation_id=$1 AND blocked_user_id=$2`, key.ConversationID, key.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Block{}, ErrBlockNotFound
	}
	return block, err
}

// IsBlocked reports whether a block exists.
func (r *BlockRepo) IsBlocked(ctx context.Context, key models.BlockKey) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM conversation_blocks
        WHERE conversation_id=$1 AND blocked_user_id=$2)`, key.ConversationID, key.UserID)
	return exists, err
}

// DeleteBlock removes a block.
func (r *BlockRepo) DeleteBlock(ctx context.Context, key models.BlockKey) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversation_blocks WHERE conversation_id=$1 AND blocked_user_id=$2`, key.ConversationID, key.UserID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	return requireAffected(count, err, ErrBlockNotFound)
}

// ListBlocks returns the blocks of a conversation, oldest first.
func (r *BlockRepo) ListBlocks(ctx context.Context, conversationID int64) ([]models.Block, error) {
	var list []models.Block
	err := r.db.SelectContext(ctx, &list, `SELECT `+blockColumns+` FROM conversation_blocks
        WHERE conversation_id=$1 ORDER BY created_at ASC`, conversationID)
	return list, err
}
