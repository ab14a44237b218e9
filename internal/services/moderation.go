package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/push"
	"conversation-service/internal/repositories"
	"conversation-service/internal/telemetry"
)

// Moderation holds the privileged group actions. Every action except
// Invite requires an admin or the owner, and none can target the owner.
type Moderation struct {
	*core
}

// authorize loads the group and the acting moderator.
func (m *Moderation) authorize(ctx context.Context, conversationID, actorID int64) (models.Conversation, models.Participant, error) {
	conv, err := m.group(ctx, conversationID)
	if err != nil {
		return models.Conversation{}, models.Participant{}, err
	}
	actor, err := m.participants.RequireParticipant(ctx, conversationID, actorID)
	if err != nil {
		return models.Conversation{}, models.Participant{}, err
	}
	if err := requireAdminOrOwner(actor); err != nil {
		return models.Conversation{}, models.Participant{}, err
	}
	return conv, actor, nil
}

// target loads the record being moderated. approvedOnly treats a pending
// request as absent.
func (m *Moderation) target(ctx context.Context, conversationID, userID int64, approvedOnly bool) (models.Participant, error) {
	p, err := m.participants.Get(ctx, models.ParticipantKey{ConversationID: conversationID, UserID: userID})
	if errors.Is(err, ErrNotFound) || (err == nil && approvedOnly && !p.IsApproved()) {
		return models.Participant{}, newError(ErrNotFound, "user is not a member of this group")
	}
	return p, err
}

// Mute bars the target from sending until an explicit Unmute. until is
// recorded but not enforced.
func (m *Moderation) Mute(ctx context.Context, conversationID, actorID, targetID int64, until *time.Time) (err error) {
	defer track("mute", &err)

	if _, _, err := m.authorize(ctx, conversationID, actorID); err != nil {
		return err
	}
	target, err := m.target(ctx, conversationID, targetID, true)
	if err != nil {
		return err
	}
	if err := requireNotOwnerTarget(target); err != nil {
		return err
	}
	now := m.now()
	if until != nil && !until.After(now) {
		return newError(ErrInvalidArgument, "mute expiry must be in the future")
	}
	if err := m.participants.SetMute(ctx, target.Key(), true, until); err != nil {
		return err
	}

	m.participantUpdated(ctx, conversationID, actorID, targetID, "mute", "", now)
	detail := ""
	if until != nil {
		detail = "until=" + until.UTC().Format(time.RFC3339)
	}
	m.auditModeration(ctx, telemetry.ModerationRecord{Action: "mute", ConversationID: conversationID, ActorID: actorID, TargetUserID: targetID, Detail: detail})
	return nil
}

// Unmute clears the mute flag and expiry.
func (m *Moderation) Unmute(ctx context.Context, conversationID, actorID, targetID int64) (err error) {
	defer track("unmute", &err)

	if _, _, err := m.authorize(ctx, conversationID, actorID); err != nil {
		return err
	}
	target, err := m.target(ctx, conversationID, targetID, true)
	if err != nil {
		return err
	}
	if err := requireNotOwnerTarget(target); err != nil {
		return err
	}
	if err := m.participants.SetMute(ctx, target.Key(), false, nil); err != nil {
		return err
	}

	m.participantUpdated(ctx, conversationID, actorID, targetID, "unmute", "", m.now())
	m.auditModeration(ctx, telemetry.ModerationRecord{Action: "unmute", ConversationID: conversationID, ActorID: actorID, TargetUserID: targetID})
	return nil
}

// Kick removes the target's record, pending or approved. Of two
// concurrent kicks one succeeds and the other gets NotFound.
func (m *Moderation) Kick(ctx context.Context, conversationID, actorID, targetID int64) (err error) {
	defer track("kick", &err)

	conv, _, err := m.authorize(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	target, err := m.target(ctx, conversationID, targetID, false)
	if err != nil {
		return err
	}
	if err := requireNotOwnerTarget(target); err != nil {
		return err
	}
	if err := m.participants.Delete(ctx, target.Key()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(ErrNotFound, "user is not a member of this group")
		}
		return err
	}

	m.removed(ctx, conv, actorID, targetID, "kick")
	m.auditModeration(ctx, telemetry.ModerationRecord{Action: "kick", ConversationID: conversationID, ActorID: actorID, TargetUserID: targetID})
	return nil
}

// Block removes the target and records a block in one storage
// transaction. The user cannot rejoin until Unblock.
func (m *Moderation) Block(ctx context.Context, conversationID, actorID, targetID int64, reason string) (err error) {
	defer track("block", &err)

	conv, _, err := m.authorize(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	blocked, err := m.isBlocked(ctx, conversationID, targetID)
	if err != nil {
		return err
	}
	if blocked {
		return newError(ErrAlreadyBlocked, "user is already blocked")
	}
	target, err := m.target(ctx, conversationID, targetID, false)
	if err != nil {
		return err
	}
	if err := requireNotOwnerTarget(target); err != nil {
		return err
	}

	err = m.blocks.BlockParticipant(ctx, models.Block{
		ConversationID: conversationID,
		BlockedUserID:  targetID,
		BlockerUserID:  actorID,
		Reason:         strings.TrimSpace(reason),
		CreatedAt:      m.now(),
	})
	switch {
	case errors.Is(err, repositories.ErrBlockExists):
		return newError(ErrAlreadyBlocked, "user is already blocked")
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return newError(ErrNotFound, "user is not a member of this group")
	case err != nil:
		return internalError("block.create", err)
	}

	m.removed(ctx, conv, actorID, targetID, "block")
	m.auditModeration(ctx, telemetry.ModerationRecord{Action: "block", ConversationID: conversationID, ActorID: actorID, TargetUserID: targetID, Detail: reason})
	return nil
}

// Unblock lifts a block.
func (m *Moderation) Unblock(ctx context.Context, conversationID, actorID, targetID int64) (err error) {
	defer track("unblock", &err)

	if _, _, err := m.authorize(ctx, conversationID, actorID); err != nil {
		return err
	}
	err = m.blocks.DeleteBlock(ctx, models.BlockKey{ConversationID: conversationID, UserID: targetID})
	if errors.Is(err, repositories.ErrBlockNotFound) {
		return newError(ErrNotBlocked, "user is not blocked")
	}
	if err != nil {
		return internalError("block.delete", err)
	}
	m.auditModeration(ctx, telemetry.ModerationRecord{Action: "unblock", ConversationID: conversationID, ActorID: actorID, TargetUserID: targetID})
	return nil
}

// SetAdmin promotes a member or demotes an admin. Owner only.
func (m *Moderation) SetAdmin(ctx context.Context, conversationID, actorID, targetID int64, action models.AdminAction) (err error) {
	defer track("set_admin", &err)

	var role models.Role
	switch action {
	case models.AdminPromote:
		role = models.RoleAdmin
	case models.AdminDemote:
		role = models.RoleMember
	default:
		return newError(ErrInvalidArgument, "action must be PROMOTE or DEMOTE")
	}

	_, actor, err := m.authorize(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if err := requireOwner(actor); err != nil {
		return err
	}
	target, err := m.target(ctx, conversationID, targetID, true)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return newError(ErrCannotChangeOwner, "the owner's role cannot be changed")
	}
	if target.Role == role {
		return nil
	}
	if err := m.participants.SetRole(ctx, target.Key(), role); err != nil {
		return err
	}

	m.participantUpdated(ctx, conversationID, actorID, targetID, strings.ToLower(string(action)), role, m.now())
	m.auditModeration(ctx, telemetry.ModerationRecord{Action: strings.ToLower(string(action)), ConversationID: conversationID, ActorID: actorID, TargetUserID: targetID})
	return nil
}

// Invite adds a user to a group directly. Any approved participant can invite.
func (m *Moderation) Invite(ctx context.Context, conversationID, actorID, targetID int64) (p models.Participant, err error) {
	defer track("invite", &err)

	conv, err := m.group(ctx, conversationID)
	if err != nil {
		return models.Participant{}, err
	}
	if _, err := m.participants.RequireParticipant(ctx, conversationID, actorID); err != nil {
		return models.Participant{}, err
	}
	blocked, err := m.isBlocked(ctx, conversationID, targetID)
	if err != nil {
		return models.Participant{}, err
	}
	if blocked {
		return models.Participant{}, newError(ErrBlocked, "user is blocked from this group")
	}
	key := models.ParticipantKey{ConversationID: conversationID, UserID: targetID}
	if _, err := m.participants.Get(ctx, key); err == nil {
		return models.Participant{}, newError(ErrAlreadyMember, "user is already a member")
	} else if !errors.Is(err, ErrNotFound) {
		return models.Participant{}, err
	}
	if _, err := m.user(ctx, targetID); err != nil {
		return models.Participant{}, err
	}

	now := m.now()
	p = models.Participant{
		ConversationID: conversationID,
		UserID:         targetID,
		Role:           models.RoleMember,
		Status:         models.StatusApproved,
		JoinedAt:       now,
	}
	if err := m.participants.Create(ctx, p); err != nil {
		return models.Participant{}, err
	}

	m.dispatch.User(ctx, targetID, models.Event{
		Type:             models.EventGroupInvitation,
		ConversationID:   conversationID,
		ConversationName: conv.Name,
		ActorID:          actorID,
		ActorName:        m.displayName(ctx, actorID),
		Timestamp:        now,
	})
	m.dispatch.Topic(ctx, push.ConversationTopic(conversationID), models.Event{
		Type:           models.EventParticipantJoined,
		ConversationID: conversationID,
		UserID:         targetID,
		ActorID:        actorID,
		Role:           models.RoleMember,
		Timestamp:      now,
	})
	return p, nil
}

// MutedList returns muted participants. Admins and the owner only.
func (m *Moderation) MutedList(ctx context.Context, conversationID, actorID int64) ([]models.MemberView, error) {
	if _, _, err := m.authorize(ctx, conversationID, actorID); err != nil {
		return nil, err
	}
	muted, err := m.participants.repo.ListMuted(ctx, conversationID)
	if err != nil {
		return nil, internalError("participant.list_muted", err)
	}
	return m.memberViews(ctx, muted)
}

// BlockList returns the group's blocks. Admins and the owner only.
func (m *Moderation) BlockList(ctx context.Context, conversationID, actorID int64) ([]models.BlockView, error) {
	if _, _, err := m.authorize(ctx, conversationID, actorID); err != nil {
		return nil, err
	}
	blocks, err := m.blocks.ListBlocks(ctx, conversationID)
	if err != nil {
		return nil, internalError("block.list", err)
	}
	ids := make([]int64, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.BlockedUserID)
	}
	users, err := m.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, internalError("user.bulk", err)
	}
	views := make([]models.BlockView, 0, len(blocks))
	for _, b := range blocks {
		u := users[b.BlockedUserID]
		views = append(views, models.BlockView{
			UserID:        b.BlockedUserID,
			Username:      u.Username,
			Nickname:      u.DisplayName(),
			BlockerUserID: b.BlockerUserID,
			Reason:        b.Reason,
			CreatedAt:     b.CreatedAt,
		})
	}
	return views, nil
}

func (m *Moderation) participantUpdated(ctx context.Context, conversationID, actorID, targetID int64, action string, role models.Role, at time.Time) {
	m.dispatch.Topic(ctx, push.ConversationTopic(conversationID), models.Event{
		Type:           models.EventParticipantUpdated,
		ConversationID: conversationID,
		UserID:         targetID,
		ActorID:        actorID,
		Role:           role,
		Action:         action,
		Timestamp:      at,
	})
}

func (m *Moderation) removed(ctx context.Context, conv models.Conversation, actorID, targetID int64, action string) {
	now := m.now()
	m.dispatch.Evict(ctx, conv.ID, targetID)
	m.dispatch.Topic(ctx, push.ConversationTopic(conv.ID), models.Event{
		Type:           models.EventParticipantRemoved,
		ConversationID: conv.ID,
		UserID:         targetID,
		ActorID:        actorID,
		Action:         action,
		Timestamp:      now,
	})
	m.dispatch.User(ctx, targetID, models.Event{
		Type:             models.EventRemovedFromGroup,
		ConversationID:   conv.ID,
		ConversationName: conv.Name,
		ActorID:          actorID,
		Action:           action,
		Timestamp:        now,
	})
}
