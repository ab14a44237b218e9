package services

import (
	"context"
	"errors"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

// ParticipantStore owns participant records and translates storage
// failures into engine errors. Each call touches a single row.
type ParticipantStore struct {
	repo repositories.ParticipantRepository
}

// Get returns the record for key regardless of status.
func (s *ParticipantStore) Get(ctx context.Context, key models.ParticipantKey) (models.Participant, error) {
	p, err := s.repo.GetParticipant(ctx, key)
	if errors.Is(err, repositories.ErrParticipantNotFound) {
		return models.Participant{}, newError(ErrNotFound, "participant not found")
	}
	if err != nil {
		return models.Participant{}, internalError("participant.get", err)
	}
	return p, nil
}

// Create inserts a record. A record already present for the pair fails
// with ErrAlreadyMember.
func (s *ParticipantStore) Create(ctx context.Context, p models.Participant) error {
	if (p.Role == models.RoleWaiting) != (p.Status == models.StatusPending) {
		return newError(ErrInvalidArgument, "waiting role is only valid for pending records")
	}
	err := s.repo.CreateParticipant(ctx, p)
	if errors.Is(err, repositories.ErrParticipantExists) {
		return newError(ErrAlreadyMember, "user is already a member")
	}
	if err != nil {
		return internalError("participant.create", err)
	}
	return nil
}

// Delete removes the record whatever its status.
func (s *ParticipantStore) Delete(ctx context.Context, key models.ParticipantKey) error {
	return s.wrap("participant.delete", s.repo.DeleteParticipant(ctx, key))
}

// SetRole switches an approved participant between member and admin.
// The owner role is never granted or revoked here.
func (s *ParticipantStore) SetRole(ctx context.Context, key models.ParticipantKey, role models.Role) error {
	if role != models.RoleMember && role != models.RoleAdmin {
		return newError(ErrInvalidArgument, "role must be member or admin")
	}
	return s.wrap("participant.set_role", s.repo.SetRole(ctx, key, role))
}

func (s *ParticipantStore) SetMute(ctx context.Context, key models.ParticipantKey, muted bool, until *time.Time) error {
	return s.wrap("participant.set_mute", s.repo.SetMute(ctx, key, muted, until))
}

func (s *ParticipantStore) SetPin(ctx context.Context, key models.ParticipantKey, pinned bool) error {
	return s.wrap("participant.set_pin", s.repo.SetPin(ctx, key, pinned))
}

func (s *ParticipantStore) SetNotificationMute(ctx context.Context, key models.ParticipantKey, muted bool) error {
	return s.wrap("participant.set_notification_mute", s.repo.SetNotificationMute(ctx, key, muted))
}

func (s *ParticipantStore) SetUnread(ctx context.Context, key models.ParticipantKey, count int) error {
	return s.wrap("participant.set_unread", s.repo.SetUnread(ctx, key, count))
}

func (s *ParticipantStore) SetLastRead(ctx context.Context, key models.ParticipantKey, messageID int64) error {
	return s.wrap("participant.set_last_read", s.repo.SetLastRead(ctx, key, messageID))
}

func (s *ParticipantStore) SetHistoryHiddenBefore(ctx context.Context, key models.ParticipantKey, at time.Time) error {
	return s.wrap("participant.set_history_hidden_before", s.repo.SetHistoryHiddenBefore(ctx, key, at))
}

// Approved lists approved participants in join order.
func (s *ParticipantStore) Approved(ctx context.Context, conversationID int64) ([]models.Participant, error) {
	list, err := s.repo.ListParticipants(ctx, conversationID, models.StatusApproved)
	if err != nil {
		return nil, internalError("participant.list", err)
	}
	return list, nil
}

// RequireParticipant returns the caller's approved record. A pending
// join request does not count as participation.
func (s *ParticipantStore) RequireParticipant(ctx context.Context, conversationID, userID int64) (models.Participant, error) {
	p, err := s.repo.GetParticipant(ctx, models.ParticipantKey{ConversationID: conversationID, UserID: userID})
	if errors.Is(err, repositories.ErrParticipantNotFound) {
		return models.Participant{}, newError(ErrNotAParticipant, "you are not a participant of this conversation")
	}
	if err != nil {
		return models.Participant{}, internalError("participant.require", err)
	}
	if !p.IsApproved() {
		return models.Participant{}, newError(ErrNotAParticipant, "you are not a participant of this conversation")
	}
	return p, nil
}

func (s *ParticipantStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrParticipantNotFound) {
		return newError(ErrNotFound, "participant not found")
	}
	return internalError(op, err)
}

func requireAdminOrOwner(p models.Participant) error {
	if !p.IsAdminOrOwner() {
		return newError(ErrForbidden, "only admins or the owner can do this")
	}
	return nil
}

func requireOwner(p models.Participant) error {
	if p.Role != models.RoleOwner {
		return newError(ErrForbidden, "only the owner can do this")
	}
	return nil
}

// requireNotMuted checks the mute flag only. MutedUntil is informational
// and is not compared with the clock.
func requireNotMuted(p models.Participant) error {
	if p.IsMuted {
		return newError(ErrMuted, "you are muted in this conversation")
	}
	return nil
}

func requireNotOwnerTarget(target models.Participant) error {
	if target.Role == models.RoleOwner {
		return newError(ErrForbidden, "cannot kick/mute/demote the owner")
	}
	return nil
}
