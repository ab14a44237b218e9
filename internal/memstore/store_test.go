package memstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func seedGroup(t *testing.T, s *Store, members ...int64) models.Conversation {
	t.Helper()
	owner := members[0]
	var parts []models.Participant
	for i, id := range members {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleOwner
		}
		parts = append(parts, models.Participant{UserID: id, Role: role, Status: models.StatusApproved, JoinedAt: t0.Add(time.Duration(i) * time.Second)})
	}
	conv, err := s.CreateConversation(context.Background(), models.Conversation{Kind: models.KindGroup, Name: "g", OwnerID: &owner, IsPublic: true, CreatedAt: t0}, parts)
	require.NoError(t, err)
	return conv
}

func TestCreateParticipantRejectsDuplicate(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 1)
	ctx := context.Background()

	p := models.Participant{ConversationID: conv.ID, UserID: 2, Role: models.RoleWaiting, Status: models.StatusPending, JoinedAt: t0}
	require.NoError(t, s.CreateParticipant(ctx, p))
	assert.ErrorIs(t, s.CreateParticipant(ctx, p), repositories.ErrParticipantExists)
}

func TestPrivatePairIsUniqueInEitherOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := models.PrivatePairKey(1, 2)
	_, err := s.CreateConversation(ctx, models.Conversation{Kind: models.KindPrivate, PrivateKey: &key, CreatedAt: t0}, nil)
	require.NoError(t, err)

	other := models.PrivatePairKey(2, 1)
	_, err = s.CreateConversation(ctx, models.Conversation{Kind: models.KindPrivate, PrivateKey: &other, CreatedAt: t0}, nil)
	assert.ErrorIs(t, err, repositories.ErrPrivateConversationExists)

	found, err := s.FindPrivate(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.KindPrivate, found.Kind)
}

func TestConcurrentIncrementsDoNotLoseUpdates(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 1, 2, 3)
	ctx := context.Background()

	const senders = 50
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementUnread(ctx, conv.ID, 1))
		}()
	}
	wg.Wait()

	p2, err := s.GetParticipant(ctx, models.ParticipantKey{ConversationID: conv.ID, UserID: 2})
	require.NoError(t, err)
	assert.Equal(t, senders, p2.UnreadCount)
	p1, err := s.GetParticipant(ctx, models.ParticipantKey{ConversationID: conv.ID, UserID: 1})
	require.NoError(t, err)
	assert.Zero(t, p1.UnreadCount)
}

func TestIncrementSkipsPending(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 1)
	ctx := context.Background()
	key := models.ParticipantKey{ConversationID: conv.ID, UserID: 9}
	require.NoError(t, s.CreateParticipant(ctx, models.Participant{ConversationID: conv.ID, UserID: 9, Role: models.RoleWaiting, Status: models.StatusPending, JoinedAt: t0}))

	require.NoError(t, s.IncrementUnread(ctx, conv.ID, 1))
	p, err := s.GetParticipant(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, p.UnreadCount)
}

func TestConcurrentDeleteHasOneWinner(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 1, 2)
	ctx := context.Background()
	key := models.ParticipantKey{ConversationID: conv.ID, UserID: 2}

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.DeleteParticipant(ctx, key); err == nil {
				atomic.AddInt32(&wins, 1)
			} else {
				assert.ErrorIs(t, err, repositories.ErrParticipantNotFound)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestApproveOnlyOnce(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 1)
	ctx := context.Background()
	key := models.ParticipantKey{ConversationID: conv.ID, UserID: 5}
	require.NoError(t, s.CreateParticipant(ctx, models.Participant{ConversationID: conv.ID, UserID: 5, Role: models.RoleWaiting, Status: models.StatusPending, JoinedAt: t0}))

	p, err := s.Approve(ctx, key, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, p.Status)
	assert.Equal(t, models.RoleMember, p.Role)
	assert.Equal(t, t0.Add(time.Minute), p.JoinedAt)

	_, err = s.Approve(ctx, key, t0)
	assert.ErrorIs(t, err, repositories.ErrParticipantNotFound)
	assert.ErrorIs(t, s.DeletePending(ctx, key), repositories.ErrParticipantNotFound)
}

func TestBlockParticipantRemovesRecord(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 1, 2)
	ctx := context.Background()
	block := models.Block{ConversationID: conv.ID, BlockedUserID: 2, BlockerUserID: 1, Reason: "spam", CreatedAt: t0}

	require.NoError(t, s.BlockParticipant(ctx, block))
	_, err := s.GetParticipant(ctx, models.ParticipantKey{ConversationID: conv.ID, UserID: 2})
	assert.ErrorIs(t, err, repositories.ErrParticipantNotFound)
	blocked, err := s.IsBlocked(ctx, block.Key())
	require.NoError(t, err)
	assert.True(t, blocked)

	assert.ErrorIs(t, s.BlockParticipant(ctx, block), repositories.ErrParticipantNotFound)
	require.NoError(t, s.DeleteBlock(ctx, block.Key()))
	assert.ErrorIs(t, s.DeleteBlock(ctx, block.Key()), repositories.ErrBlockNotFound)
}

func TestListMessagesRespectsCutoffAndDeletes(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 1)
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		m, err := s.CreateMessage(ctx, models.Message{ConversationID: conv.ID, SenderID: 1, Content: "m", CreatedAt: t0.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	require.NoError(t, s.DeleteForAll(ctx, ids[2], 1))

	cutoff := t0
	list, err := s.ListMessages(ctx, conv.ID, &cutoff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[1], list[0].ID)

	latest, err := s.LatestMessage(ctx, conv.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, ids[1], latest.ID)
}

func TestListParticipantsOrderedByJoinTime(t *testing.T) {
	s := New()
	conv := seedGroup(t, s, 3, 1, 2)
	list, err := s.ListParticipants(context.Background(), conv.ID, models.StatusApproved)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{list[0].UserID, list[1].UserID, list[2].UserID})
}
