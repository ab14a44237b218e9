// Package push is the boundary to the push transport: point-to-point
// delivery to a user and broadcast to a topic.
package push

import (
	"context"
	"errors"
	"fmt"
)

// Transport delivers already encoded payloads. Delivery is best effort.
// Evict drops every subscription userID holds on topic, so a removed
// participant stops receiving broadcasts.
type Transport interface {
	SendToUser(ctx context.Context, userID int64, payload []byte) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Evict(ctx context.Context, topic string, userID int64) error
}

// ConversationTopic carries messages and membership changes of one conversation.
func ConversationTopic(conversationID int64) string {
	return fmt.Sprintf("conversations/%d", conversationID)
}

// RecallTopic carries recall notices of one conversation.
func RecallTopic(conversationID int64) string {
	return fmt.Sprintf("conversations/%d/recalls", conversationID)
}

// Fanout hands every payload to each transport in turn and joins their errors.
type Fanout []Transport

func (f Fanout) SendToUser(ctx context.Context, userID int64, payload []byte) error {
	var errs []error
	for _, t := range f {
		if err := t.SendToUser(ctx, userID, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Publish(ctx context.Context, topic string, payload []byte) error {
	var errs []error
	for _, t := range f {
		if err := t.Publish(ctx, topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Evict(ctx context.Context, topic string, userID int64) error {
	var errs []error
	for _, t := range f {
		if err := t.Evict(ctx, topic, userID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConversationTopics lists every topic a conversation socket subscribes to.
func ConversationTopics(conversationID int64) []string {
	return []string{ConversationTopic(conversationID), RecallTopic(conversationID)}
}

// Noop drops everything.
type Noop struct{}

func (Noop) SendToUser(context.Context, int64, []byte) error { return nil }
func (Noop) Publish(context.Context, string, []byte) error   { return nil }
func (Noop) Evict(context.Context, string, int64) error      { return nil }
