package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/models"
	"conversation-service/internal/push"
)

func TestJoinRequestAcceptedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2, 3)

	_, err := f.engine.Joins.Request(ctx, conv.ID, 4)
	require.NoError(t, err)
	assert.Len(t, f.push.userEvents(1, models.EventJoinRequest), 1)

	pending, err := f.engine.Joins.ListPending(ctx, conv.ID, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(4), pending[0].UserID)
	assert.Equal(t, models.StatusPending, pending[0].Status)
	assert.Equal(t, models.RoleWaiting, pending[0].Role)

	require.NoError(t, f.engine.Joins.Handle(ctx, conv.ID, 1, 4, models.JoinAccept))
	p := f.participant(t, conv.ID, 4)
	assert.Equal(t, models.RoleMember, p.Role)
	assert.Equal(t, models.StatusApproved, p.Status)

	err = f.engine.Joins.Handle(ctx, conv.ID, 1, 4, models.JoinAccept)
	require.ErrorIs(t, err, ErrAlreadyHandled)

	assert.Len(t, f.push.userEvents(4, models.EventJoinRequestHandled), 1)
	assert.Len(t, f.push.topicEvents(push.ConversationTopic(conv.ID), models.EventParticipantJoined), 1)
}

func TestJoinRequestRejectDeletesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2)

	_, err := f.engine.Joins.Request(ctx, conv.ID, 5)
	require.NoError(t, err)
	require.NoError(t, f.engine.Joins.Handle(ctx, conv.ID, 1, 5, models.JoinReject))

	_, err = f.engine.Participants.Get(ctx, models.ParticipantKey{ConversationID: conv.ID, UserID: 5})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.Joins.Request(ctx, conv.ID, 5)
	require.NoError(t, err)
}

func TestJoinRequestGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2)

	_, err := f.engine.Joins.Request(ctx, conv.ID, 2)
	require.ErrorIs(t, err, ErrAlreadyMemberOrPending)

	_, err = f.engine.Joins.Request(ctx, conv.ID, 3)
	require.NoError(t, err)
	_, err = f.engine.Joins.Request(ctx, conv.ID, 3)
	require.ErrorIs(t, err, ErrAlreadyMemberOrPending)

	closed, err := f.engine.Conversations.CreateGroup(ctx, CreateGroupInput{CreatorID: 1, Name: "closed"})
	require.NoError(t, err)
	_, err = f.engine.Joins.Request(ctx, closed.ID, 4)
	require.ErrorIs(t, err, ErrPrivateGroup)

	private, err := f.engine.Conversations.FindOrCreatePrivate(ctx, 1, 2)
	require.NoError(t, err)
	_, err = f.engine.Joins.Request(ctx, private.ID, 4)
	require.ErrorIs(t, err, ErrNotAGroup)

	_, err = f.engine.Joins.ListPending(ctx, conv.ID, 2)
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, f.engine.Joins.Handle(ctx, conv.ID, 2, 3, models.JoinAccept), ErrForbidden)
	require.ErrorIs(t, f.engine.Joins.Handle(ctx, conv.ID, 1, 6, models.JoinAccept), ErrNotFound)
	require.ErrorIs(t, f.engine.Joins.Handle(ctx, conv.ID, 1, 3, models.JoinAction("MAYBE")), ErrInvalidArgument)
}

func TestConcurrentHandleHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, 1, 2)
	require.NoError(t, f.engine.Moderation.SetAdmin(ctx, conv.ID, 1, 2, models.AdminPromote))

	_, err := f.engine.Joins.Request(ctx, conv.ID, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, actor := range []int64{1, 2} {
		wg.Add(1)
		go func(i int, actor int64) {
			defer wg.Done()
			results[i] = f.engine.Joins.Handle(ctx, conv.ID, actor, 3, models.JoinAccept)
		}(i, actor)
	}
	wg.Wait()

	var ok, handled int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrAlreadyHandled):
			handled++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, handled)
}
