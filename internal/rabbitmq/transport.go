package rabbitmq

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"conversation-service/internal/push"
)

// PushEnvelope carries one push payload to other nodes. A broadcast sets
// Topic, a direct delivery sets UserID, and an eviction sets both with
// Evict true and no payload.
type PushEnvelope struct {
	Topic   string          `json:"topic,omitempty"`
	UserID  int64           `json:"user_id,omitempty"`
	Evict   bool            `json:"evict,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Transport relays push events over the exchange so every node can
// deliver them to its own websocket clients.
type Transport struct {
	publisher Publisher
}

var _ push.Transport = (*Transport)(nil)

func NewTransport(publisher Publisher) *Transport {
	return &Transport{publisher: publisher}
}

func (t *Transport) Publish(ctx context.Context, topic string, payload []byte) error {
	return t.publisher.Publish(ctx, TopicRoutingKey(topic), PushEnvelope{Topic: topic, Payload: payload})
}

func (t *Transport) SendToUser(ctx context.Context, userID int64, payload []byte) error {
	return t.publisher.Publish(ctx, UserRoutingKey(userID), PushEnvelope{UserID: userID, Payload: payload})
}

// Evict is published on the topic's routing key so nodes holding sockets
// for that topic receive it in order with the topic's broadcasts.
func (t *Transport) Evict(ctx context.Context, topic string, userID int64) error {
	return t.publisher.Publish(ctx, TopicRoutingKey(topic), PushEnvelope{Topic: topic, UserID: userID, Evict: true})
}

// TopicRoutingKey maps conversations/7/recalls to conversations.7.recalls.
func TopicRoutingKey(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

func UserRoutingKey(userID int64) string {
	return "users." + strconv.FormatInt(userID, 10)
}
