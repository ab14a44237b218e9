package models

import (
	"strconv"
	"time"
)

// ConversationKind distinguishes one-to-one chats from groups. It never changes after creation.
type ConversationKind string

const (
	KindPrivate ConversationKind = "PRIVATE"
	KindGroup   ConversationKind = "GROUP"
)

// Conversation is either a private chat between exactly two users or a group.
type Conversation struct {
	ID          int64            `db:"id" json:"id"`
	Kind        ConversationKind `db:"kind" json:"kind"`
	Name        string           `db:"name" json:"name,omitempty"`
	Description string           `db:"description" json:"description,omitempty"`
	AvatarURL   string           `db:"avatar_url" json:"avatar_url,omitempty"`
	Latitude    *float64         `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64         `db:"longitude" json:"longitude,omitempty"`
	City        string           `db:"city" json:"city,omitempty"`
	OwnerID     *int64           `db:"owner_id" json:"owner_id,omitempty"`
	IsPublic    bool             `db:"is_public" json:"is_public"`
	IsActive    bool             `db:"is_active" json:"is_active"`
	IsArchived  bool             `db:"is_archived" json:"is_archived"`
	PrivateKey  *string          `db:"private_key" json:"-"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// IsGroup reports whether the conversation is a group.
func (c Conversation) IsGroup() bool {
	return c.Kind == KindGroup
}

// GeoTag is the optional location attached to a group at creation.
type GeoTag struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
}

// ConversationSummary is the per-user list entry for a conversation.
type ConversationSummary struct {
	ConversationID       int64            `json:"conversation_id"`
	Kind                 ConversationKind `json:"kind"`
	Name                 string           `json:"name"`
	AvatarURL            string           `json:"avatar_url,omitempty"`
	LastMessageContent   *string          `json:"last_message_content"`
	LastMessageTimestamp *time.Time       `json:"last_message_timestamp"`
	UnreadCount          int              `json:"unread_count"`
	Pinned               bool             `json:"pinned"`
	NotificationsMuted   bool             `json:"notifications_muted"`
}

// ConversationStatus describes what the caller may currently do in a conversation.
type ConversationStatus string

const (
	StatusOK                   ConversationStatus = "OK"
	StatusMuted                ConversationStatus = "MUTED"
	StatusNotAMember           ConversationStatus = "NOT_A_MEMBER"
	StatusBlockedFromGroup     ConversationStatus = "BLOCKED_FROM_GROUP"
	StatusConversationNotFound ConversationStatus = "CONVERSATION_NOT_FOUND"
)

// PrivatePairKey is the order independent identity of a private chat between two users.
func PrivatePairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return strconv.FormatInt(a, 10) + ":" + strconv.FormatInt(b, 10)
}
