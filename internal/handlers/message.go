package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/models"
	"conversation-service/internal/services"
	"conversation-service/internal/telemetry"
)

// MessageHandler serves message endpoints.
type MessageHandler struct {
	engine *services.Engine
	audit  *telemetry.AuditEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(engine *services.Engine, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{engine: engine, audit: audit}
}

// List handles GET /conversations/:id/messages.
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.engine.Messages.List(c.Request.Context(), convID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Send handles POST /conversations/:id/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content   string  `json:"content"`
		MediaURL  *string `json:"media_url"`
		Type      string  `json:"type"`
		ReplyToID *int64  `json:"reply_to_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msgType, ok := models.ParseMessageType(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message type"})
		return
	}

	view, err := h.engine.Messages.Send(c.Request.Context(), services.SendInput{
		ConversationID: convID,
		SenderID:       userID,
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		Type:           msgType,
		ReplyToID:      req.ReplyToID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Recall handles POST /conversations/:id/messages/:message_id/recall.
func (h *MessageHandler) Recall(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	if err := h.engine.Messages.Recall(c.Request.Context(), convID, messageID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteForAll handles DELETE /conversations/:id/messages/:message_id/all.
func (h *MessageHandler) DeleteForAll(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	if err := h.engine.Messages.DeleteForAll(c.Request.Context(), convID, messageID, userID); err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "message deleted for all")
	c.Status(http.StatusNoContent)
}

// Forward handles POST /messages/:message_id/forward.
func (h *MessageHandler) Forward(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	var req struct {
		ConversationIDs []int64 `json:"conversation_ids" binding:"required"`
		Note            string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	views, err := h.engine.Messages.Forward(c.Request.Context(), services.ForwardInput{
		MessageID:             messageID,
		ActorID:               userID,
		TargetConversationIDs: req.ConversationIDs,
		Note:                  req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"messages": views})
}

// Report handles POST /messages/:message_id/report.
func (h *MessageHandler) Report(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.engine.Reports.ReportMessage(c.Request.Context(), userID, messageID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "message reported")
	c.JSON(http.StatusCreated, gin.H{"report_id": report.ID})
}
