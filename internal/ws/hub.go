package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"conversation-service/internal/observability"
	"conversation-service/internal/push"
)

// Hub delivers push payloads to sockets connected to this process.
// Conversation sockets subscribe to topics; notification sockets
// register under their user id.
type Hub struct {
	topics map[string]map[*Client]bool
	users  map[int64]map[*Client]bool
	mu     sync.RWMutex
}

var _ push.Transport = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]bool),
		users:  make(map[int64]map[*Client]bool),
	}
}

// Subscribe registers a client to receive a topic.
func (h *Hub) Subscribe(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][c] = true
}

// Unsubscribe removes a client from a topic.
func (h *Hub) Unsubscribe(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.topics[topic]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Register adds a user-addressed notification socket.
func (h *Hub) Register(userID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*Client]bool)
	}
	h.users[userID][c] = true
}

// Unregister removes a notification socket.
func (h *Hub) Unregister(userID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.users[userID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.users, userID)
		}
	}
}

// Publish writes payload to every subscriber of topic.
func (h *Hub) Publish(_ context.Context, topic string, payload []byte) error {
	for _, c := range h.snapshot(func() map[*Client]bool { return h.topics[topic] }) {
		if err := c.write(payload); err != nil {
			log.Printf("websocket write error topic=%s conn_id=%s: %v", topic, c.info.ConnID, err)
			c.conn.Close()
			h.Unsubscribe(topic, c)
			h.publishWSError("conversation", c, err)
		}
	}
	return nil
}

// SendToUser writes payload to every notification socket of userID.
func (h *Hub) SendToUser(_ context.Context, userID int64, payload []byte) error {
	for _, c := range h.snapshot(func() map[*Client]bool { return h.users[userID] }) {
		if err := c.write(payload); err != nil {
			log.Printf("websocket write error user_id=%d conn_id=%s: %v", userID, c.info.ConnID, err)
			c.conn.Close()
			h.Unregister(userID, c)
			h.publishWSError("notification", c, err)
		}
	}
	return nil
}

// Evict unsubscribes and closes every socket of userID on topic. Closing
// ends the read loop, which unsubscribes the socket from its other topics.
func (h *Hub) Evict(_ context.Context, topic string, userID int64) error {
	h.mu.Lock()
	var evicted []*Client
	for c := range h.topics[topic] {
		if c.info.UserID == userID {
			delete(h.topics[topic], c)
			evicted = append(evicted, c)
		}
	}
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
	h.mu.Unlock()

	for _, c := range evicted {
		log.Printf("websocket evicted topic=%s user_id=%d conn_id=%s", topic, userID, c.info.ConnID)
		c.close()
	}
	return nil
}

// snapshot copies a client set so writes happen without holding the lock.
func (h *Hub) snapshot(set func() map[*Client]bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := set()
	out := make([]*Client, 0, len(clients))
	for c := range clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) publishWSError(kind string, c *Client, err error) {
	publishLifecycle(context.Background(), kind, "ws_error", c.info, time.Since(c.info.ConnectedAt), err.Error())
}

func publishLifecycle(ctx context.Context, kind, event string, info ConnInfo, elapsed time.Duration, reason string) {
	observability.IncWSEvent(kind, event)
	_ = observability.PublishEvent(ctx, wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Headers:   observability.BuildHeaders(info.RequestID, info.TraceID),
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        kind,
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": elapsed.Milliseconds(),
				"reason":      reason,
			},
			"identity": info.identity(),
		},
	})
}

func wsRoutingKey(kind string) string {
	if kind == "notification" {
		return "ws_events.notifications"
	}
	return "ws_events.conversations"
}
