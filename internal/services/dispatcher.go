package services

import (
	"context"
	"encoding/json"
	"log"

	"conversation-service/internal/models"
	"conversation-service/internal/observability"
	"conversation-service/internal/push"
)

// Dispatcher turns committed mutations into push events. It must only be
// called after the mutation it announces has been stored. Delivery
// failures are logged and counted; they never fail the operation.
type Dispatcher struct {
	transport push.Transport
}

func NewDispatcher(transport push.Transport) *Dispatcher {
	return &Dispatcher{transport: transport}
}

// Topic broadcasts a conversation-wide event.
func (d *Dispatcher) Topic(ctx context.Context, topic string, ev models.Event) {
	payload, ok := encode(ev)
	if !ok {
		return
	}
	err := d.transport.Publish(context.WithoutCancel(ctx), topic, payload)
	observability.IncPushDelivery("topic", string(ev.Type), err)
	if err != nil {
		log.Printf("dispatch: topic=%s event=%s: %v", topic, ev.Type, err)
	}
}

// User delivers an event addressed to one user.
func (d *Dispatcher) User(ctx context.Context, userID int64, ev models.Event) {
	payload, ok := encode(ev)
	if !ok {
		return
	}
	err := d.transport.SendToUser(context.WithoutCancel(ctx), userID, payload)
	observability.IncPushDelivery("user", string(ev.Type), err)
	if err != nil {
		log.Printf("dispatch: user=%d event=%s: %v", userID, ev.Type, err)
	}
}

// Evict detaches userID from every topic of a conversation. Call it after
// the participant row is gone and before announcing the removal.
func (d *Dispatcher) Evict(ctx context.Context, conversationID, userID int64) {
	for _, topic := range push.ConversationTopics(conversationID) {
		err := d.transport.Evict(context.WithoutCancel(ctx), topic, userID)
		observability.IncPushDelivery("evict", "participant_removed", err)
		if err != nil {
			log.Printf("dispatch: evict topic=%s user=%d: %v", topic, userID, err)
		}
	}
}

// Users delivers the same event to each recipient once.
func (d *Dispatcher) Users(ctx context.Context, userIDs []int64, ev models.Event) {
	seen := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		d.User(ctx, id, ev)
	}
}

func encode(ev models.Event) ([]byte, bool) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("dispatch: encode event=%s: %v", ev.Type, err)
		return nil, false
	}
	return payload, true
}
