package models

import "time"

// Role is a participant's standing within a conversation.
type Role string

const (
	RoleMember  Role = "member"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
	RoleWaiting Role = "waiting"
)

// Status is the approval state of a participant record.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
)

// ParticipantKey identifies a participant record. It is the only identity
// of a participant: two records with equal keys are the same participant.
type ParticipantKey struct {
	ConversationID int64
	UserID         int64
}

// Participant binds one user to one conversation.
type Participant struct {
	ConversationID      int64      `db:"conversation_id" json:"conversation_id"`
	UserID              int64      `db:"user_id" json:"user_id"`
	Role                Role       `db:"role" json:"role"`
	Status              Status     `db:"status" json:"status"`
	IsMuted             bool       `db:"is_muted" json:"is_muted"`
	MutedUntil          *time.Time `db:"muted_until" json:"muted_until,omitempty"`
	IsPinned            bool       `db:"is_pinned" json:"is_pinned"`
	NotificationsMuted  bool       `db:"notifications_muted" json:"notifications_muted"`
	UnreadCount         int        `db:"unread_count" json:"unread_count"`
	LastReadMessageID   *int64     `db:"last_read_message_id" json:"last_read_message_id,omitempty"`
	JoinedAt            time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt              *time.Time `db:"left_at" json:"left_at,omitempty"`
	HistoryHiddenBefore *time.Time `db:"history_hidden_before" json:"history_hidden_before,omitempty"`
}

// Key returns the composite identity of the record.
func (p Participant) Key() ParticipantKey {
	return ParticipantKey{ConversationID: p.ConversationID, UserID: p.UserID}
}

// IsApproved reports whether the record is an accepted membership.
func (p Participant) IsApproved() bool {
	return p.Status == StatusApproved
}

// IsAdminOrOwner reports whether the participant holds a privileged role.
func (p Participant) IsAdminOrOwner() bool {
	return p.Role == RoleAdmin || p.Role == RoleOwner
}

// MemberView is a participant enriched with the user's public profile.
type MemberView struct {
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	Nickname   string     `json:"nickname"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	Role       Role       `json:"role"`
	Status     Status     `json:"status"`
	IsMuted    bool       `json:"is_muted"`
	MutedUntil *time.Time `json:"muted_until,omitempty"`
	JoinedAt   time.Time  `json:"joined_at"`
}
