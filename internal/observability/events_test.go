package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func TestPublishEventWithoutPublisher(t *testing.T) {
	SetPublisher(nil)
	assert.NoError(t, PublishEvent(context.Background(), "ws_events.conversations", EventEnvelope{EventName: "ws_connect"}))
}

func TestPublishEventStampsTime(t *testing.T) {
	pub := new(publisherMock)
	SetPublisher(pub)
	defer SetPublisher(nil)

	pub.On("Publish", mock.Anything, "ws_events.conversations", mock.MatchedBy(func(e EventEnvelope) bool {
		return e.EventName == "ws_connect" && !e.OccurredAt.IsZero() && e.Headers["x-request-id"] == "req-1"
	})).Return(nil).Once()

	err := PublishEvent(context.Background(), "ws_events.conversations", EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Headers:   BuildHeaders("req-1", ""),
	})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestBuildHeadersSkipsEmpty(t *testing.T) {
	assert.Empty(t, BuildHeaders("", ""))
	assert.Equal(t, map[string]string{"trace_id": "abc"}, BuildHeaders("", "abc"))
}
