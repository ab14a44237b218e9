package models

import "time"

// BlockKey identifies a conversation-scoped block.
type BlockKey struct {
	ConversationID int64
	UserID         int64
}

// Block keeps a user out of a group until it is removed.
type Block struct {
	ConversationID int64     `db:"conversation_id" json:"conversation_id"`
	BlockedUserID  int64     `db:"blocked_user_id" json:"blocked_user_id"`
	BlockerUserID  int64     `db:"blocker_user_id" json:"blocker_user_id"`
	Reason         string    `db:"reason" json:"reason"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Key returns the composite identity of the block.
func (b Block) Key() BlockKey {
	return BlockKey{ConversationID: b.ConversationID, UserID: b.BlockedUserID}
}

// BlockView is a block enriched with the blocked user's profile.
type BlockView struct {
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	Nickname      string    `json:"nickname"`
	BlockerUserID int64     `json:"blocker_user_id"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}
