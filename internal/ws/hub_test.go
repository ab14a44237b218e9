package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
	closed bool
}

func (f *fakeSocket) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSocket) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func TestHubSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	c := NewClient(&fakeSocket{}, ConnInfo{})

	hub.Subscribe("conversations/1", c)
	require.Len(t, hub.topics, 1)

	hub.Unsubscribe("conversations/1", c)
	assert.Empty(t, hub.topics)
}

func TestHubPublishReachesOnlyTopicSubscribers(t *testing.T) {
	hub := NewHub()
	inTopic := &fakeSocket{}
	otherTopic := &fakeSocket{}
	hub.Subscribe("conversations/1", NewClient(inTopic, ConnInfo{}))
	hub.Subscribe("conversations/2", NewClient(otherTopic, ConnInfo{}))

	require.NoError(t, hub.Publish(context.Background(), "conversations/1", []byte(`{"type":"message"}`)))
	assert.Equal(t, [][]byte{[]byte(`{"type":"message"}`)}, inTopic.frames)
	assert.Empty(t, otherTopic.frames)
}

func TestHubSendToUserReachesEverySocket(t *testing.T) {
	hub := NewHub()
	phone := &fakeSocket{}
	laptop := &fakeSocket{}
	hub.Register(5, NewClient(phone, ConnInfo{UserID: 5}))
	hub.Register(5, NewClient(laptop, ConnInfo{UserID: 5}))

	require.NoError(t, hub.SendToUser(context.Background(), 5, []byte("x")))
	assert.Len(t, phone.frames, 1)
	assert.Len(t, laptop.frames, 1)
	assert.NoError(t, hub.SendToUser(context.Background(), 6, []byte("x")))
}

func TestHubDropsBrokenSocket(t *testing.T) {
	hub := NewHub()
	broken := &fakeSocket{err: errors.New("broken pipe")}
	hub.Register(5, NewClient(broken, ConnInfo{UserID: 5, ConnectedAt: time.Now()}))

	require.NoError(t, hub.SendToUser(context.Background(), 5, []byte("x")))
	assert.True(t, broken.closed)
	assert.Empty(t, hub.users)
}
