package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/push"
	"conversation-service/internal/repositories"
)

// Conversations covers conversation lifecycle and per-user settings.
type Conversations struct {
	*core
}

// CreateGroupInput describes a new group.
type CreateGroupInput struct {
	CreatorID   int64
	Name        string
	Description string
	AvatarURL   string
	IsPublic    bool
	MemberIDs   []int64
	Geo         *models.GeoTag
}

// CreateGroup creates a group owned by the creator. Unknown member ids
// are skipped.
func (s *Conversations) CreateGroup(ctx context.Context, in CreateGroupInput) (conv models.Conversation, err error) {
	defer track("create_group", &err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Conversation{}, newError(ErrInvalidArgument, "group name is required")
	}
	if _, err := s.user(ctx, in.CreatorID); err != nil {
		return models.Conversation{}, err
	}
	owned, err := s.conversations.CountOwnedGroups(ctx, in.CreatorID)
	if err != nil {
		return models.Conversation{}, internalError("conversation.count_owned", err)
	}
	if owned >= s.limits.MaxOwnedGroups {
		return models.Conversation{}, newError(ErrLimitExceeded, "you can own at most "+strconv.Itoa(s.limits.MaxOwnedGroups)+" groups")
	}

	var candidates []int64
	for _, id := range uniqueIDs(in.MemberIDs) {
		if id != in.CreatorID {
			candidates = append(candidates, id)
		}
	}
	known, err := s.users.BulkUsers(ctx, candidates)
	if err != nil {
		return models.Conversation{}, internalError("user.bulk", err)
	}

	now := s.now()
	participants := []models.Participant{{UserID: in.CreatorID, Role: models.RoleOwner, Status: models.StatusApproved, JoinedAt: now}}
	var members []int64
	for _, id := range candidates {
		if _, ok := known[id]; !ok {
			continue
		}
		members = append(members, id)
		participants = append(participants, models.Participant{UserID: id, Role: models.RoleMember, Status: models.StatusApproved, JoinedAt: now})
	}

	owner := in.CreatorID
	conv = models.Conversation{
		Kind:        models.KindGroup,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		AvatarURL:   in.AvatarURL,
		OwnerID:     &owner,
		IsPublic:    in.IsPublic,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Geo != nil {
		lat, lng := in.Geo.Latitude, in.Geo.Longitude
		conv.Latitude, conv.Longitude, conv.City = &lat, &lng, in.Geo.City
	}
	conv, err = s.conversations.CreateConversation(ctx, conv, participants)
	if err != nil {
		return models.Conversation{}, internalError("conversation.create_group", err)
	}

	s.dispatch.Users(ctx, members, models.Event{
		Type:             models.EventGroupInvitation,
		ConversationID:   conv.ID,
		ConversationName: conv.Name,
		ActorID:          in.CreatorID,
		ActorName:        s.displayName(ctx, in.CreatorID),
		Timestamp:        now,
	})
	return conv, nil
}

// FindOrCreatePrivate returns the one private conversation between two
// users, creating it on first use. Concurrent first calls converge on
// the same conversation.
func (s *Conversations) FindOrCreatePrivate(ctx context.Context, userID, partnerID int64) (conv models.Conversation, err error) {
	defer track("find_or_create_private", &err)

	if userID == partnerID {
		return models.Conversation{}, newError(ErrInvalidArgument, "cannot start a private conversation with yourself")
	}
	if _, err := s.user(ctx, partnerID); err != nil {
		return models.Conversation{}, err
	}
	conv, err = s.conversations.FindPrivate(ctx, userID, partnerID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repositories.ErrConversationNotFound) {
		return models.Conversation{}, internalError("conversation.find_private", err)
	}

	now := s.now()
	key := models.PrivatePairKey(userID, partnerID)
	conv, err = s.conversations.CreateConversation(ctx, models.Conversation{
		Kind:       models.KindPrivate,
		PrivateKey: &key,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, []models.Participant{
		{UserID: userID, Role: models.RoleMember, Status: models.StatusApproved, JoinedAt: now},
		{UserID: partnerID, Role: models.RoleMember, Status: models.StatusApproved, JoinedAt: now},
	})
	if errors.Is(err, repositories.ErrPrivateConversationExists) {
		conv, err = s.conversations.FindPrivate(ctx, userID, partnerID)
	}
	if err != nil {
		return models.Conversation{}, internalError("conversation.create_private", err)
	}
	return conv, nil
}

// List returns the user's conversations, pinned first, then by last activity.
func (s *Conversations) List(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	memberships, err := s.participants.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, internalError("participant.list_for_user", err)
	}
	summaries := make([]models.ConversationSummary, 0, len(memberships))
	activity := make(map[int64]time.Time, len(memberships))
	for _, p := range memberships {
		conv, err := s.conversation(ctx, p.ConversationID)
		if err != nil {
			return nil, err
		}
		summary, last, err := s.summarize(ctx, conv, p)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
		activity[conv.ID] = last
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Pinned != summaries[j].Pinned {
			return summaries[i].Pinned
		}
		return activity[summaries[i].ConversationID].After(activity[summaries[j].ConversationID])
	})
	return summaries, nil
}

// Search returns the caller's groups whose name contains query, ignoring
// case, in List order.
func (s *Conversations) Search(ctx context.Context, userID int64, query string) ([]models.ConversationSummary, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, newError(ErrInvalidArgument, "search query is required")
	}
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	matches := make([]models.ConversationSummary, 0, len(all))
	for _, summary := range all {
		if summary.Kind == models.KindGroup && strings.Contains(strings.ToLower(summary.Name), query) {
			matches = append(matches, summary)
		}
	}
	return matches, nil
}

// Get returns one summary for a participant.
func (s *Conversations) Get(ctx context.Context, userID, conversationID int64) (models.ConversationSummary, error) {
	conv, err := s.conversation(ctx, conversationID)
	if err != nil {
		return models.ConversationSummary{}, err
	}
	p, err := s.participants.RequireParticipant(ctx, conversationID, userID)
	if err != nil {
		return models.ConversationSummary{}, err
	}
	summary, _, err := s.summarize(ctx, conv, p)
	return summary, err
}

// summarize builds the list entry and returns the last activity time.
func (s *Conversations) summarize(ctx context.Context, conv models.Conversation, p models.Participant) (models.ConversationSummary, time.Time, error) {
	summary := models.ConversationSummary{
		ConversationID:     conv.ID,
		Kind:               conv.Kind,
		Name:               conv.Name,
		AvatarURL:          conv.AvatarURL,
		UnreadCount:        p.UnreadCount,
		Pinned:             p.IsPinned,
		NotificationsMuted: p.NotificationsMuted,
	}
	if !conv.IsGroup() {
		others, err := s.participants.Approved(ctx, conv.ID)
		if err != nil {
			return models.ConversationSummary{}, time.Time{}, err
		}
		for _, o := range others {
			if o.UserID == p.UserID {
				continue
			}
			if partner, err := s.users.GetUser(ctx, o.UserID); err == nil {
				summary.Name = partner.DisplayName()
				summary.AvatarURL = partner.AvatarURL
			}
		}
	}

	last := conv.CreatedAt
	latest, err := s.messages.LatestMessage(ctx, conv.ID, p.HistoryHiddenBefore)
	switch {
	case err == nil:
		ts := latest.CreatedAt
		summary.LastMessageTimestamp = &ts
		if !latest.Recalled {
			content := latest.Content
			summary.LastMessageContent = &content
		}
		last = ts
	case !errors.Is(err, repositories.ErrMessageNotFound):
		return models.ConversationSummary{}, time.Time{}, internalError("message.latest", err)
	}
	return summary, last, nil
}

// Leave removes the caller from a group. The owner cannot leave.
func (s *Conversations) Leave(ctx context.Context, userID, conversationID int64) (err error) {
	defer track("leave", &err)

	if _, err := s.group(ctx, conversationID); err != nil {
		return err
	}
	p, err := s.participants.RequireParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if p.Role == models.RoleOwner {
		return newError(ErrForbidden, "the owner cannot leave the group")
	}
	if err := s.participants.Delete(ctx, p.Key()); err != nil {
		return err
	}
	s.dispatch.Evict(ctx, conversationID, userID)
	s.dispatch.Topic(ctx, push.ConversationTopic(conversationID), models.Event{
		Type:           models.EventParticipantLeft,
		ConversationID: conversationID,
		UserID:         userID,
		Timestamp:      s.now(),
	})
	return nil
}

// ClearHistory hides everything sent so far from the caller only.
func (s *Conversations) ClearHistory(ctx context.Context, userID, conversationID int64) error {
	p, err := s.participants.RequireParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	return s.participants.SetHistoryHiddenBefore(ctx, p.Key(), s.now())
}

// TogglePin flips the caller's pin flag and returns the new value.
func (s *Conversations) TogglePin(ctx context.Context, userID, conversationID int64) (bool, error) {
	p, err := s.participants.RequireParticipant(ctx, conversationID, userID)
	if err != nil {
		return false, err
	}
	pinned := !p.IsPinned
	return pinned, s.participants.SetPin(ctx, p.Key(), pinned)
}

// ToggleNotificationMute flips the caller's notification mute and returns the new value.
func (s *Conversations) ToggleNotificationMute(ctx context.Context, userID, conversationID int64) (bool, error) {
	p, err := s.participants.RequireParticipant(ctx, conversationID, userID)
	if err != nil {
		return false, err
	}
	muted := !p.NotificationsMuted
	return muted, s.participants.SetNotificationMute(ctx, p.Key(), muted)
}

// Status reports what the caller can currently do in a conversation.
func (s *Conversations) Status(ctx context.Context, userID, conversationID int64) (models.ConversationStatus, error) {
	if _, err := s.conversation(ctx, conversationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.StatusConversationNotFound, nil
		}
		return "", err
	}
	blocked, err := s.isBlocked(ctx, conversationID, userID)
	if err != nil {
		return "", err
	}
	if blocked {
		return models.StatusBlockedFromGroup, nil
	}
	p, err := s.participants.RequireParticipant(ctx, conversationID, userID)
	if errors.Is(err, ErrNotAParticipant) {
		return models.StatusNotAMember, nil
	}
	if err != nil {
		return "", err
	}
	if p.IsMuted {
		return models.StatusMuted, nil
	}
	return models.StatusOK, nil
}

// Members lists approved participants with their profiles.
func (s *Conversations) Members(ctx context.Context, userID, conversationID int64) ([]models.MemberView, error) {
	if _, err := s.participants.RequireParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	list, err := s.participants.Approved(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return s.memberViews(ctx, list)
}
