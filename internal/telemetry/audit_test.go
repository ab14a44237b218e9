package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *publisherMock) Close() error { return nil }

func TestModerationEnvelope(t *testing.T) {
	pub := new(publisherMock)
	emitter := NewAuditEmitter(pub, "audit.conversations", "conversation-service", "test")
	emitter.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	var got AuditEnvelope
	pub.On("Publish", mock.Anything, "audit.conversations", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) { got = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	emitter.Moderation(context.Background(), "req-9", ModerationRecord{Action: "kick", ConversationID: 4, ActorID: 1, TargetUserID: 2})

	pub.AssertExpectations(t)
	assert.Equal(t, "audit_log", got.EventType)
	assert.Equal(t, "2026-03-01T10:00:00Z", got.OccurredAt)
	assert.Equal(t, "req-9", got.RequestID)
	if assert.NotNil(t, got.UserID) {
		assert.Equal(t, "1", *got.UserID)
	}
	assert.Equal(t, "kick", got.Payload.Action)
	assert.Equal(t, int64(2), got.Payload.TargetUserID)
	assert.Equal(t, "kick conversation=4 target=2", got.Payload.Text)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "x", "", nil)
		emitter.Moderation(context.Background(), "", ModerationRecord{Action: "mute"})
	})
}
