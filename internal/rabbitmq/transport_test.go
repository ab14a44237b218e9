package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/mocks"
)

func TestTransportPublishUsesTopicRoutingKey(t *testing.T) {
	pub := new(mocks.PublisherMock)
	transport := NewTransport(pub)

	pub.On("Publish", mock.Anything, "conversations.7.recalls", PushEnvelope{
		Topic:   "conversations/7/recalls",
		Payload: json.RawMessage(`{"type":"recall"}`),
	}).Return(nil).Once()

	require.NoError(t, transport.Publish(context.Background(), "conversations/7/recalls", []byte(`{"type":"recall"}`)))
	pub.AssertExpectations(t)
}

func TestTransportSendToUser(t *testing.T) {
	pub := new(mocks.PublisherMock)
	transport := NewTransport(pub)

	pub.On("Publish", mock.Anything, "users.12", mock.MatchedBy(func(e PushEnvelope) bool {
		return e.UserID == 12 && e.Topic == ""
	})).Return(assert.AnError).Once()

	assert.ErrorIs(t, transport.SendToUser(context.Background(), 12, []byte(`{}`)), assert.AnError)
	pub.AssertExpectations(t)
}

func TestNoopPublisherWhenURLEmpty(t *testing.T) {
	p := NewPublisher("", "conversation.events")
	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	assert.NoError(t, NewTransport(p).Publish(context.Background(), "conversations/1", []byte(`{}`)))
}

func TestTransportEvictTravelsOnTopicKey(t *testing.T) {
	pub := new(mocks.PublisherMock)
	transport := NewTransport(pub)

	pub.On("Publish", mock.Anything, "conversations.7", PushEnvelope{
		Topic:  "conversations/7",
		UserID: 2,
		Evict:  true,
	}).Return(nil).Once()

	require.NoError(t, transport.Evict(context.Background(), "conversations/7", 2))
	pub.AssertExpectations(t)
}
