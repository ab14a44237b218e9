package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/services"
	"conversation-service/internal/telemetry"
)

// ConversationHandler serves per-user conversation endpoints.
type ConversationHandler struct {
	engine *services.Engine
	audit  *telemetry.AuditEmitter
}

// NewConversationHandler constructs a ConversationHandler.
func NewConversationHandler(engine *services.Engine, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{engine: engine, audit: audit}
}

// List handles GET /conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	list, err := h.engine.Conversations.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

// Search handles GET /conversations/search?q=.
func (h *ConversationHandler) Search(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	list, err := h.engine.Conversations.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

// Get handles GET /conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.engine.Conversations.Get(c.Request.Context(), userID, convID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StartPrivate handles POST /conversations/private.
func (h *ConversationHandler) StartPrivate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		PartnerID int64 `json:"partner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv, err := h.engine.Conversations.FindOrCreatePrivate(c.Request.Context(), userID, req.PartnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// Status handles GET /conversations/:id/status.
func (h *ConversationHandler) Status(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	status, err := h.engine.Conversations.Status(c.Request.Context(), userID, convID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Members handles GET /conversations/:id/members.
func (h *ConversationHandler) Members(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := h.engine.Conversations.Members(c.Request.Context(), userID, convID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Leave handles POST /conversations/:id/leave.
func (h *ConversationHandler) Leave(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.Conversations.Leave(c.Request.Context(), userID, convID); err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "left conversation")
	c.Status(http.StatusNoContent)
}

// ClearHistory handles POST /conversations/:id/clear-history.
func (h *ConversationHandler) ClearHistory(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.Conversations.ClearHistory(c.Request.Context(), userID, convID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TogglePin handles POST /conversations/:id/pin.
func (h *ConversationHandler) TogglePin(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	pinned, err := h.engine.Conversations.TogglePin(c.Request.Context(), userID, convID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pinned": pinned})
}

// ToggleNotificationMute handles POST /conversations/:id/notifications-mute.
func (h *ConversationHandler) ToggleNotificationMute(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	muted, err := h.engine.Conversations.ToggleNotificationMute(c.Request.Context(), userID, convID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications_muted": muted})
}

// MarkRead handles POST /conversations/:id/read.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.Unread.MarkRead(c.Request.Context(), convID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Report handles POST /conversations/:id/report.
func (h *ConversationHandler) Report(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason      string `json:"reason"`
		EvidenceURL string `json:"evidence_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.engine.Reports.ReportConversation(c.Request.Context(), userID, convID, req.Reason, req.EvidenceURL)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "conversation reported")
	c.JSON(http.StatusCreated, gin.H{"report_id": report.ID})
}
