package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"conversation-service/internal/middleware"
	"conversation-service/internal/models"
	"conversation-service/internal/observability"
	"conversation-service/internal/push"
	"conversation-service/internal/telemetry"
)

// ParticipantChecker authorizes a socket subscription to a conversation.
type ParticipantChecker interface {
	RequireParticipant(ctx context.Context, conversationID, userID int64) (models.Participant, error)
}

// Handler upgrades HTTP requests into hub clients.
type Handler struct {
	hub     *Hub
	members ParticipantChecker
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, members ParticipantChecker) *Handler {
	return &Handler{hub: hub, members: members}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conversation subscribes the caller to the message and recall topics
// of one conversation.
func (h *Handler) Conversation(c *gin.Context) {
	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	ctx, span := telemetry.Tracer().Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	if _, err := h.members.RequireParticipant(ctx, conversationID, userID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for conversation"})
		return
	}

	client, ok := h.upgrade(c, userID, span.SpanContext().TraceID().String())
	if !ok {
		return
	}
	topics := push.ConversationTopics(conversationID)
	for _, topic := range topics {
		h.hub.Subscribe(topic, client)
	}
	unsubscribe := func() {
		for _, topic := range topics {
			h.hub.Unsubscribe(topic, client)
		}
	}
	// A removal committed between the check and Subscribe evicted nothing.
	if _, err := h.members.RequireParticipant(ctx, conversationID, userID); err != nil {
		unsubscribe()
		client.close()
		return
	}
	go h.serve("conversation", client, unsubscribe)
}

// Notifications registers the caller's user-addressed socket.
func (h *Handler) Notifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	_, span := telemetry.Tracer().Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	client, ok := h.upgrade(c, userID, span.SpanContext().TraceID().String())
	if !ok {
		return
	}
	h.hub.Register(userID, client)
	go h.serve("notification", client, func() { h.hub.Unregister(userID, client) })
}

func (h *Handler) upgrade(c *gin.Context, userID int64, traceID string) (*Client, bool) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return nil, false
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   middleware.RequestIDFrom(c),
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	return NewClient(conn, info), true
}

// serve reads until the peer goes away, then runs cleanup.
func (h *Handler) serve(kind string, client *Client, cleanup func()) {
	ctx := context.Background()
	conn := client.conn.(*websocket.Conn)
	observability.IncWSActive(kind)
	publishLifecycle(ctx, kind, "ws_connect", client.info, 0, "")

	var closeReason string
	defer func() {
		cleanup()
		observability.DecWSActive(kind)
		publishLifecycle(ctx, kind, "ws_disconnect", client.info, time.Since(client.info.ConnectedAt), closeReason)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishLifecycle(ctx, kind, "ws_error", client.info, time.Since(client.info.ConnectedAt), closeReason)
			}
			return
		}
	}
}
