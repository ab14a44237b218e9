package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/memstore"
	"conversation-service/internal/models"
	"conversation-service/internal/push"
	"conversation-service/internal/services"
)

func newEngine(t *testing.T, hub *Hub) *services.Engine {
	t.Helper()
	store := memstore.New()
	for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol"} {
		store.AddUser(models.User{ID: id, Username: name})
	}
	return services.New(services.Deps{
		Conversations: store,
		Participants:  store,
		Messages:      store,
		Blocks:        store,
		Users:         store,
		Reports:       store,
		Transport:     hub,
	})
}

func subscribe(hub *Hub, conversationID, userID int64) *fakeSocket {
	sock := &fakeSocket{}
	c := NewClient(sock, ConnInfo{UserID: userID})
	for _, topic := range push.ConversationTopics(conversationID) {
		hub.Subscribe(topic, c)
	}
	return sock
}

func TestRemovedParticipantStopsReceiving(t *testing.T) {
	ctx := context.Background()
	removals := map[string]func(e *services.Engine, convID int64) error{
		"kick": func(e *services.Engine, convID int64) error {
			return e.Moderation.Kick(ctx, convID, 1, 2)
		},
		"block": func(e *services.Engine, convID int64) error {
			return e.Moderation.Block(ctx, convID, 1, 2, "spam")
		},
		"leave": func(e *services.Engine, convID int64) error {
			return e.Conversations.Leave(ctx, 2, convID)
		},
	}
	for name, remove := range removals {
		t.Run(name, func(t *testing.T) {
			hub := NewHub()
			engine := newEngine(t, hub)
			conv, err := engine.Conversations.CreateGroup(ctx, services.CreateGroupInput{
				CreatorID: 1,
				Name:      "group",
				MemberIDs: []int64{2, 3},
			})
			require.NoError(t, err)

			removed := subscribe(hub, conv.ID, 2)
			bystander := subscribe(hub, conv.ID, 3)

			require.NoError(t, remove(engine, conv.ID))
			_, err = engine.Messages.Send(ctx, services.SendInput{ConversationID: conv.ID, SenderID: 1, Content: "after"})
			require.NoError(t, err)
			msg, err := engine.Messages.Send(ctx, services.SendInput{ConversationID: conv.ID, SenderID: 1, Content: "recall me"})
			require.NoError(t, err)
			require.NoError(t, engine.Messages.Recall(ctx, conv.ID, msg.ID, 1))

			assert.Empty(t, removed.frames)
			assert.True(t, removed.closed)
			// removal notice, two messages, one recall
			assert.Len(t, bystander.frames, 4)
			for _, topic := range push.ConversationTopics(conv.ID) {
				for c := range hub.topics[topic] {
					assert.NotEqual(t, int64(2), c.info.UserID, topic)
				}
			}
		})
	}
}

func TestHubEvictLeavesOtherUsers(t *testing.T) {
	hub := NewHub()
	gone := &fakeSocket{}
	stays := &fakeSocket{}
	hub.Subscribe("conversations/1", NewClient(gone, ConnInfo{UserID: 2}))
	hub.Subscribe("conversations/1", NewClient(stays, ConnInfo{UserID: 3}))

	require.NoError(t, hub.Evict(context.Background(), "conversations/1", 2))
	require.NoError(t, hub.Publish(context.Background(), "conversations/1", []byte("x")))

	assert.True(t, gone.closed)
	assert.Empty(t, gone.frames)
	assert.Len(t, stays.frames, 1)
	assert.NoError(t, hub.Evict(context.Background(), "conversations/9", 2))
}
