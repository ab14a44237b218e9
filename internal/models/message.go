package models

import (
	"strings"
	"time"
)

// MessageType classifies message content.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageEmoji  MessageType = "emoji"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// ParseMessageType validates a client supplied type. Empty input means text.
func ParseMessageType(s string) (MessageType, bool) {
	switch t := MessageType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return MessageText, true
	case MessageText, MessageImage, MessageEmoji, MessageFile, MessageSystem:
		return t, true
	default:
		return "", false
	}
}

// Message is a persisted chat message. Only Recalled and Deleted change after creation.
type Message struct {
	ID             int64       `db:"id" json:"id"`
	ConversationID int64       `db:"conversation_id" json:"conversation_id"`
	SenderID       int64       `db:"sender_id" json:"sender_id"`
	Content        string      `db:"content" json:"content"`
	MediaURL       *string     `db:"media_url" json:"media_url,omitempty"`
	Type           MessageType `db:"message_type" json:"type"`
	ReplyToID      *int64      `db:"reply_to_id" json:"reply_to_id,omitempty"`
	Recalled       bool        `db:"is_recalled" json:"recalled"`
	Deleted        bool        `db:"is_deleted" json:"deleted"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// Sender is the public identity attached to a message view.
type Sender struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ReplyPreview is resolved from the live reply target each time a view is built.
type ReplyPreview struct {
	MessageID      int64  `json:"message_id"`
	SenderNickname string `json:"sender_nickname"`
	Content        string `json:"content"`
}

// MessageView is the read model returned to clients and pushed to subscribers.
// Content is nil once the message has been recalled.
type MessageView struct {
	ID             int64         `json:"id"`
	ConversationID int64         `json:"conversation_id"`
	Sender         Sender        `json:"sender"`
	Content        *string       `json:"content"`
	MediaURL       *string       `json:"media_url,omitempty"`
	Type           MessageType   `json:"type"`
	ReplyTo        *ReplyPreview `json:"replied_message,omitempty"`
	Recalled       bool          `json:"is_recalled"`
	CreatedAt      time.Time     `json:"timestamp"`
}
