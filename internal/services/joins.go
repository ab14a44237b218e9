package services

import (
	"context"
	"errors"

	"conversation-service/internal/models"
	"conversation-service/internal/push"
	"conversation-service/internal/repositories"
)

// JoinRequests runs the pending membership workflow:
// request creates waiting/PENDING, accept approves it, reject deletes it.
type JoinRequests struct {
	*core
}

// Request asks to join a public group.
func (j *JoinRequests) Request(ctx context.Context, conversationID, requesterID int64) (p models.Participant, err error) {
	defer track("join_request", &err)

	conv, err := j.group(ctx, conversationID)
	if err != nil {
		return models.Participant{}, err
	}
	if !conv.IsPublic {
		return models.Participant{}, newError(ErrPrivateGroup, "this group does not accept join requests")
	}
	key := models.ParticipantKey{ConversationID: conversationID, UserID: requesterID}
	if _, err := j.participants.Get(ctx, key); err == nil {
		return models.Participant{}, newError(ErrAlreadyMemberOrPending, "you are already a member or have a pending request")
	} else if !errors.Is(err, ErrNotFound) {
		return models.Participant{}, err
	}
	blocked, err := j.isBlocked(ctx, conversationID, requesterID)
	if err != nil {
		return models.Participant{}, err
	}
	if blocked {
		return models.Participant{}, newError(ErrBlocked, "you are blocked from this group")
	}

	p = models.Participant{
		ConversationID: conversationID,
		UserID:         requesterID,
		Role:           models.RoleWaiting,
		Status:         models.StatusPending,
		JoinedAt:       j.now(),
	}
	if err := j.participants.Create(ctx, p); err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			return models.Participant{}, newError(ErrAlreadyMemberOrPending, "you are already a member or have a pending request")
		}
		return models.Participant{}, err
	}

	moderators, err := j.moderators(ctx, conversationID)
	if err != nil {
		return p, nil
	}
	j.dispatch.Users(ctx, moderators, models.Event{
		Type:             models.EventJoinRequest,
		ConversationID:   conversationID,
		ConversationName: conv.Name,
		UserID:           requesterID,
		ActorName:        j.displayName(ctx, requesterID),
		Timestamp:        p.JoinedAt,
	})
	return p, nil
}

// ListPending returns pending requests in request order. Admins and the
// owner only.
func (j *JoinRequests) ListPending(ctx context.Context, conversationID, actorID int64) ([]models.MemberView, error) {
	if _, err := j.group(ctx, conversationID); err != nil {
		return nil, err
	}
	actor, err := j.participants.RequireParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireAdminOrOwner(actor); err != nil {
		return nil, err
	}
	pending, err := j.participants.repo.ListParticipants(ctx, conversationID, models.StatusPending)
	if err != nil {
		return nil, internalError("participant.list_pending", err)
	}
	return j.memberViews(ctx, pending)
}

// Handle accepts or rejects a pending request. Of two concurrent calls
// for the same request exactly one succeeds; the other gets AlreadyHandled.
func (j *JoinRequests) Handle(ctx context.Context, conversationID, actorID, requesterID int64, action models.JoinAction) (err error) {
	defer track("join_handle", &err)

	if action != models.JoinAccept && action != models.JoinReject {
		return newError(ErrInvalidArgument, "action must be ACCEPT or REJECT")
	}
	conv, err := j.group(ctx, conversationID)
	if err != nil {
		return err
	}
	actor, err := j.participants.RequireParticipant(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if err := requireAdminOrOwner(actor); err != nil {
		return err
	}
	key := models.ParticipantKey{ConversationID: conversationID, UserID: requesterID}
	target, err := j.participants.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(ErrNotFound, "join request not found")
		}
		return err
	}
	if target.Status != models.StatusPending {
		return newError(ErrAlreadyHandled, "join request was already handled")
	}

	now := j.now()
	switch action {
	case models.JoinAccept:
		_, err = j.participants.repo.Approve(ctx, key, now)
	case models.JoinReject:
		err = j.participants.repo.DeletePending(ctx, key)
	}
	if errors.Is(err, repositories.ErrParticipantNotFound) {
		return newError(ErrAlreadyHandled, "join request was already handled")
	}
	if err != nil {
		return internalError("join.handle", err)
	}

	j.dispatch.User(ctx, requesterID, models.Event{
		Type:             models.EventJoinRequestHandled,
		ConversationID:   conversationID,
		ConversationName: conv.Name,
		ActorID:          actorID,
		Action:           string(action),
		Timestamp:        now,
	})
	if action == models.JoinAccept {
		j.dispatch.Topic(ctx, push.ConversationTopic(conversationID), models.Event{
			Type:           models.EventParticipantJoined,
			ConversationID: conversationID,
			UserID:         requesterID,
			ActorID:        actorID,
			Role:           models.RoleMember,
			Timestamp:      now,
		})
	}
	return nil
}

func (c *core) moderators(ctx context.Context, conversationID int64) ([]int64, error) {
	approved, err := c.participants.Approved(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, p := range approved {
		if p.IsAdminOrOwner() {
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}
