package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already exists")
)

// ParticipantRepository owns one membership row per (conversation, user).
// Every mutation is a single statement scoped to one row, so concurrent
// writers to the same row serialize on the row lock and writers to
// different rows never contend.
type ParticipantRepository interface {
	GetParticipant(ctx context.Context, key models.ParticipantKey) (models.Participant, error)
	CreateParticipant(ctx context.Context, p models.Participant) error
	DeleteParticipant(ctx context.Context, key models.ParticipantKey) error
	DeletePending(ctx context.Context, key models.ParticipantKey) error
	Approve(ctx context.Context, key models.ParticipantKey, joinedAt time.Time) (models.Participant, error)
	SetRole(ctx context.Context, key models.ParticipantKey, role models.Role) error
	SetMute(ctx context.Context, key models.ParticipantKey, muted bool, until *time.Time) error
	SetPin(ctx context.Context, key models.ParticipantKey, pinned bool) error
	SetNotificationMute(ctx context.Context, key models.ParticipantKey, muted bool) error
	SetUnread(ctx context.Context, key models.ParticipantKey, count int) error
	SetLastRead(ctx context.Context, key models.ParticipantKey, messageID int64) error
	SetHistoryHiddenBefore(ctx context.Context, key models.ParticipantKey, at time.Time) error
	IncrementUnread(ctx context.Context, conversationID int64, exceptUserID int64) error
	ListParticipants(ctx context.Context, conversationID int64, status models.Status) ([]models.Participant, error)
	ListMuted(ctx context.Context, conversationID int64) ([]models.Participant, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Participant, error)
	ListCoParticipantIDs(ctx context.Context, userID int64) ([]int64, error)
}

const participantColumns = `conversation_id, user_id, role, status, is_muted, muted_until, is_pinned,
        notifications_muted, unread_count, last_read_message_id, joined_at, left_at, history_hidden_before`

const insertParticipantSQL = `INSERT INTO participants
        (conversation_id, user_id, role, status, is_muted, muted_until, is_pinned, notifications_muted, unread_count, joined_at)
        VALUES (:conversation_id, :user_id, :role, :status, :is_muted, :muted_until, :is_pinned, :notifications_muted, :unread_count, :joined_at)`

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// GetParticipant fetches one membership row.
func (r *ParticipantRepo) GetParticipant(ctx context.Context, key models.ParticipantKey) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `SELECT `+participantColumns+` FROM participants WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// CreateParticipant inserts a row, failing with ErrParticipantExists on a duplicate key.
func (r *ParticipantRepo) CreateParticipant(ctx context.Context, p models.Participant) error {
	_, err := r.db.NamedExecContext(ctx, insertParticipantSQL, p)
	if isUniqueViolation(err) {
		return ErrParticipantExists
	}
	return err
}

// DeleteParticipant removes a row regardless of its status.
func (r *ParticipantRepo) DeleteParticipant(ctx context.Context, key models.ParticipantKey) error {
	return r.exec(ctx, `DELETE FROM participants WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID)
}

// DeletePending removes a row only while it is still a pending join request.
func (r *ParticipantRepo) DeletePending(ctx context.Context, key models.ParticipantKey) error {
	return r.exec(ctx, `DELETE FROM participants WHERE conversation_id=$1 AND user_id=$2 AND status='PENDING'`, key.ConversationID, key.UserID)
}

// Approve turns a pending request into a member. Only one concurrent caller can win.
func (r *ParticipantRepo) Approve(ctx context.Context, key models.ParticipantKey, joinedAt time.Time) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `UPDATE participants
        SET status='APPROVED', role='member', is_muted=FALSE, muted_until=NULL, joined_at=$3
        WHERE conversation_id=$1 AND user_id=$2 AND status='PENDING'
        RETURNING `+participantColumns, key.ConversationID, key.UserID, joinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// SetRole updates the role of an approved participant.
func (r *ParticipantRepo) SetRole(ctx context.Context, key models.ParticipantKey, role models.Role) error {
	return r.exec(ctx, `UPDATE participants SET role=$3 WHERE conversation_id=$1 AND user_id=$2 AND status='APPROVED'`, key.ConversationID, key.UserID, role)
}

// SetMute sets or clears the posting ban.
func (r *ParticipantRepo) SetMute(ctx context.Context, key models.ParticipantKey, muted bool, until *time.Time) error {
	return r.exec(ctx, `UPDATE participants SET is_muted=$3, muted_until=$4 WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID, muted, until)
}

// SetPin sets the pinned flag.
func (r *ParticipantRepo) SetPin(ctx context.Context, key models.ParticipantKey, pinned bool) error {
	return r.exec(ctx, `UPDATE participants SET is_pinned=$3 WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID, pinned)
}

// SetNotificationMute sets the notification mute flag.
func (r *ParticipantRepo) SetNotificationMute(ctx context.Context, key models.ParticipantKey, muted bool) error {
	return r.exec(ctx, `UPDATE participants SET notifications_muted=$3 WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID, muted)
}

// SetUnread overwrites the unread counter.
func (r *ParticipantRepo) SetUnread(ctx context.Context, key models.ParticipantKey, count int) error {
	if count < 0 {
		count = 0
	}
	return r.exec(ctx, `UPDATE participants SET unread_count=$3 WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID, count)
}

// SetLastRead moves the read watermark.
func (r *ParticipantRepo) SetLastRead(ctx context.Context, key models.ParticipantKey, messageID int64) error {
	return r.exec(ctx, `UPDATE participants SET last_read_message_id=$3 WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID, messageID)
}

// SetHistoryHiddenBefore hides all messages created up to the given instant for one user.
func (r *ParticipantRepo) SetHistoryHiddenBefore(ctx context.Context, key models.ParticipantKey, at time.Time) error {
	return r.exec(ctx, `UPDATE participants SET history_hidden_before=$3 WHERE conversation_id=$1 AND user_id=$2`, key.ConversationID, key.UserID, at)
}

// IncrementUnread bumps every other approved participant in a single statement.
func (r *ParticipantRepo) IncrementUnread(ctx context.Context, conversationID int64, exceptUserID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE participants SET unread_count = unread_count + 1
        WHERE conversation_id=$1 AND user_id<>$2 AND status='APPROVED'`, conversationID, exceptUserID)
	return err
}

// ListParticipants returns rows with the given status ordered by join (or request) time.
func (r *ParticipantRepo) ListParticipants(ctx context.Context, conversationID int64, status models.Status) ([]models.Participant, error) {
	var list []models.Participant
	err := r.db.SelectContext(ctx, &list, `SELECT `+participantColumns+` FROM participants
        WHERE conversation_id=$1 AND status=$2 ORDER BY joined_at ASC, user_id ASC`, conversationID, status)
	return list, err
}

// ListMuted returns participants currently carrying the mute flag.
func (r *ParticipantRepo) ListMuted(ctx context.Context, conversationID int64) ([]models.Participant, error) {
	var list []models.Participant
	err := r.db.SelectContext(ctx, &list, `SELECT `+participantColumns+` FROM participants
        WHERE conversation_id=$1 AND is_muted = TRUE ORDER BY joined_at ASC, user_id ASC`, conversationID)
	return list, err
}

// ListForUser returns the approved memberships of a user.
func (r *ParticipantRepo) ListForUser(ctx context.Context, userID int64) ([]models.Participant, error) {
	var list []models.Participant
	err := r.db.SelectContext(ctx, &list, `SELECT `+participantColumns+` FROM participants
        WHERE user_id=$1 AND status='APPROVED' ORDER BY conversation_id ASC`, userID)
	return list, err
}

// ListCoParticipantIDs returns every distinct user sharing an approved conversation with userID.
func (r *ParticipantRepo) ListCoParticipantIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT other.user_id FROM participants me
        JOIN participants other ON other.conversation_id = me.conversation_id
        WHERE me.user_id=$1 AND me.status='APPROVED' AND other.status='APPROVED' AND other.user_id<>$1
        ORDER BY other.user_id`, userID)
	return ids, err
}

func (r *ParticipantRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	return requireAffected(count, err, ErrParticipantNotFound)
}
