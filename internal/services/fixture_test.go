package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"conversation-service/internal/memstore"
	"conversation-service/internal/models"
	"conversation-service/internal/telemetry"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type delivery struct {
	UserID int64
	Topic  string
	Event  models.Event
}

type recordingTransport struct {
	mu        sync.Mutex
	topics    []delivery
	users     []delivery
	evictions []delivery
}

func (r *recordingTransport) Evict(_ context.Context, topic string, userID int64) error {
	r.mu.Lock()
	r.evictions = append(r.evictions, delivery{UserID: userID, Topic: topic})
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) evicted(userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, d := range r.evictions {
		if d.UserID == userID {
			out = append(out, d.Topic)
		}
	}
	return out
}

func (r *recordingTransport) SendToUser(_ context.Context, userID int64, payload []byte) error {
	var ev models.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	r.mu.Lock()
	r.users = append(r.users, delivery{UserID: userID, Event: ev})
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) Publish(_ context.Context, topic string, payload []byte) error {
	var ev models.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	r.mu.Lock()
	r.topics = append(r.topics, delivery{Topic: topic, Event: ev})
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) topicEvents(topic string, typ models.EventType) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, d := range r.topics {
		if d.Topic == topic && d.Event.Type == typ {
			out = append(out, d.Event)
		}
	}
	return out
}

func (r *recordingTransport) userEvents(userID int64, typ models.EventType) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, d := range r.users {
		if d.UserID == userID && d.Event.Type == typ {
			out = append(out, d.Event)
		}
	}
	return out
}

type recordingAuditor struct {
	mu      sync.Mutex
	records []telemetry.ModerationRecord
}

func (a *recordingAuditor) Moderation(_ context.Context, _ string, rec telemetry.ModerationRecord) {
	a.mu.Lock()
	a.records = append(a.records, rec)
	a.mu.Unlock()
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, r.Action)
	}
	return out
}

type fixture struct {
	store  *memstore.Store
	clock  *fakeClock
	push   *recordingTransport
	audit  *recordingAuditor
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		clock: &fakeClock{now: t0},
		push:  &recordingTransport{},
		audit: &recordingAuditor{},
	}
	for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol", 4: "dave", 5: "erin", 6: "frank"} {
		f.store.AddUser(models.User{ID: id, Username: name, Nickname: name + "_nick"})
	}
	f.engine = New(f.deps())
	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Conversations: f.store,
		Participants:  f.store,
		Messages:      f.store,
		Blocks:        f.store,
		Users:         f.store,
		Reports:       f.store,
		Transport:     f.push,
		Audit:         f.audit,
		Clock:         f.clock,
	}
}

// group creates a public group owned by owner with the given approved members.
func (f *fixture) group(t *testing.T, owner int64, members ...int64) models.Conversation {
	t.Helper()
	conv, err := f.engine.Conversations.CreateGroup(context.Background(), CreateGroupInput{
		CreatorID: owner,
		Name:      "group",
		IsPublic:  true,
		MemberIDs: members,
	})
	require.NoError(t, err)
	return conv
}

func (f *fixture) send(t *testing.T, convID, sender int64, content string) models.MessageView {
	t.Helper()
	view, err := f.engine.Messages.Send(context.Background(), SendInput{ConversationID: convID, SenderID: sender, Content: content})
	require.NoError(t, err)
	return view
}

func (f *fixture) participant(t *testing.T, convID, userID int64) models.Participant {
	t.Helper()
	p, err := f.store.GetParticipant(context.Background(), models.ParticipantKey{ConversationID: convID, UserID: userID})
	require.NoError(t, err)
	return p
}
