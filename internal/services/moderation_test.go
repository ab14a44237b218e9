package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/models"
	"conversation-service/internal/push"
)

func TestMuteIsNotLiftedByTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2)

	until := t0.Add(5 * time.Minute)
	require.NoError(t, f.engine.Moderation.Mute(ctx, conv.ID, 1, 2, &until))

	_, err := f.engine.Messages.Send(ctx, SendInput{ConversationID: conv.ID, SenderID: 2, Content: "hello?"})
	require.ErrorIs(t, err, ErrMuted)

	f.clock.Advance(6 * time.Minute)
	_, err = f.engine.Messages.Send(ctx, SendInput{ConversationID: conv.ID, SenderID: 2, Content: "hello?"})
	require.ErrorIs(t, err, ErrMuted)

	muted, err := f.engine.Moderation.MutedList(ctx, conv.ID, 1)
	require.NoError(t, err)
	require.Len(t, muted, 1)
	assert.Equal(t, int64(2), muted[0].UserID)

	require.NoError(t, f.engine.Moderation.Unmute(ctx, conv.ID, 1, 2))
	f.send(t, conv.ID, 2, "back")
	assert.Equal(t, []string{"mute", "unmute"}, f.audit.actions())
}

func TestMuteRejectsPastExpiry(t *testing.T) {
	f := newFixture(t)
	conv := f.group(t, 1, 2)

	past := t0.Add(-time.Minute)
	err := f.engine.Moderation.Mute(context.Background(), conv.ID, 1, 2, &past)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.False(t, f.participant(t, conv.ID, 2).IsMuted)
}

func TestOwnerCannotBeTargeted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2)
	require.NoError(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 1, 2, models.AdminPromote))

	err := f.engine.Moderation.Kick(ctx, conv.ID, 1, 1)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "cannot kick/mute/demote the owner", err.Error())

	require.ErrorIs(t, f.engine.Moderation.Mute(ctx, conv.ID, 2, 1, nil), ErrForbidden)
	require.ErrorIs(t, f.engine.Moderation.Block(ctx, conv.ID, 2, 1, ""), ErrForbidden)
	require.ErrorIs(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 1, 1, models.AdminDemote), ErrCannotChangeOwner)

	assert.Equal(t, models.RoleOwner, f.participant(t, conv.ID, 1).Role)
}

func TestKickRequiresModerator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2, 3)

	require.ErrorIs(t, f.engine.Moderation.Kick(ctx, conv.ID, 2, 3), ErrForbidden)
	require.ErrorIs(t, f.engine.Moderation.Kick(ctx, conv.ID, 1, 6), ErrNotFound)

	require.NoError(t, f.engine.Moderation.Kick(ctx, conv.ID, 1, 3))
	_, err := f.engine.Participants.RequireParticipant(ctx, conv.ID, 3)
	require.ErrorIs(t, err, ErrNotAParticipant)

	assert.Len(t, f.push.topicEvents(push.ConversationTopic(conv.ID), models.EventParticipantRemoved), 1)
	assert.Len(t, f.push.userEvents(3, models.EventRemovedFromGroup), 1)
}

func TestKickRemovesPendingRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1)

	_, err := f.engine.Joins.Request(ctx, conv.ID, 4)
	require.NoError(t, err)
	require.NoError(t, f.engine.Moderation.Kick(ctx, conv.ID, 1, 4))

	pending, err := f.engine.Joins.ListPending(ctx, conv.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestConcurrentKicksHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2, 3)
	require.NoError(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 1, 2, models.AdminPromote))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, actor := range []int64{1, 2} {
		wg.Add(1)
		go func(i int, actor int64) {
			defer wg.Done()
			results[i] = f.engine.Moderation.Kick(ctx, conv.ID, actor, 3)
		}(i, actor)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 1, ok)
}

func TestBlockThenUnblock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2, 3)

	require.NoError(t, f.engine.Moderation.Block(ctx, conv.ID, 1, 2, "spam"))

	_, err := f.store.GetParticipant(ctx, models.ParticipantKey{ConversationID: conv.ID, UserID: 2})
	require.Error(t, err)
	blocks, err := f.engine.Moderation.BlockList(ctx, conv.ID, 1)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, int64(2), blocks[0].UserID)
	assert.Equal(t, "spam", blocks[0].Reason)

	_, err = f.engine.Joins.Request(ctx, conv.ID, 2)
	require.ErrorIs(t, err, ErrBlocked)
	_, err = f.engine.Moderation.Invite(ctx, conv.ID, 3, 2)
	require.ErrorIs(t, err, ErrBlocked)
	require.ErrorIs(t, f.engine.Moderation.Block(ctx, conv.ID, 1, 2, "again"), ErrAlreadyBlocked)

	status, err := f.engine.Conversations.Status(ctx, 2, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBlockedFromGroup, status)

	require.NoError(t, f.engine.Moderation.Unblock(ctx, conv.ID, 1, 2))
	require.ErrorIs(t, f.engine.Moderation.Unblock(ctx, conv.ID, 1, 2), ErrNotBlocked)

	_, err = f.engine.Joins.Request(ctx, conv.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"block", "unblock"}, f.audit.actions())
}

func TestSetAdminIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2, 3)

	require.NoError(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 1, 2, models.AdminPromote))
	assert.Equal(t, models.RoleAdmin, f.participant(t, conv.ID, 2).Role)

	require.ErrorIs(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 2, 3, models.AdminPromote), ErrForbidden)
	require.ErrorIs(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 3, 2, models.AdminDemote), ErrForbidden)

	require.NoError(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 1, 2, models.AdminDemote))
	assert.Equal(t, models.RoleMember, f.participant(t, conv.ID, 2).Role)

	updates := f.push.topicEvents(push.ConversationTopic(conv.ID), models.EventParticipantUpdated)
	require.Len(t, updates, 2)
	assert.Equal(t, models.RoleAdmin, updates[0].Role)
	assert.Equal(t, models.RoleMember, updates[1].Role)
}

func TestInviteAddsApprovedMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2)

	p, err := f.engine.Moderation.Invite(ctx, conv.ID, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, p.Status)
	assert.Equal(t, models.RoleMember, p.Role)

	invites := f.push.userEvents(5, models.EventGroupInvitation)
	require.Len(t, invites, 1)
	assert.Equal(t, "bob_nick", invites[0].ActorName)

	_, err = f.engine.Moderation.Invite(ctx, conv.ID, 2, 5)
	require.ErrorIs(t, err, ErrAlreadyMember)
	_, err = f.engine.Moderation.Invite(ctx, conv.ID, 6, 4)
	require.ErrorIs(t, err, ErrNotAParticipant)
	_, err = f.engine.Moderation.Invite(ctx, conv.ID, 1, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemovalEvictsLiveSubscriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2, 3, 4)

	require.NoError(t, f.engine.Moderation.Kick(ctx, conv.ID, 1, 2))
	require.NoError(t, f.engine.Moderation.Block(ctx, conv.ID, 1, 3, "spam"))
	require.ErrorIs(t, f.engine.Moderation.Kick(ctx, conv.ID, 4, 1), ErrForbidden)

	assert.Equal(t, push.ConversationTopics(conv.ID), f.push.evicted(2))
	assert.Equal(t, push.ConversationTopics(conv.ID), f.push.evicted(3))
	assert.Empty(t, f.push.evicted(1))
	assert.Empty(t, f.push.evicted(4))
}
