package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/middleware"
	"conversation-service/internal/telemetry"
)

var moderationActions = map[string]bool{"mute": true, "unmute": true, "kick": true, "block": true, "unblock": true}

type sampleModerationRequest struct {
	Action         string `json:"action" binding:"required"`
	ConversationID int64  `json:"conversation_id" binding:"required"`
	ActorID        int64  `json:"actor_id" binding:"required"`
	TargetUserID   int64  `json:"target_user_id" binding:"required"`
	Detail         string `json:"detail"`
}

// RegisterDebugRoutes wires debug-only endpoints. The moderation sample
// lets audit consumers be checked against a record without touching a group.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.POST("/debug/audit/moderation", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		var req sampleModerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if !moderationActions[req.Action] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown moderation action"})
			return
		}
		emitter.Moderation(c.Request.Context(), middleware.RequestIDFrom(c), telemetry.ModerationRecord{
			Action:         req.Action,
			ConversationID: req.ConversationID,
			ActorID:        req.ActorID,
			TargetUserID:   req.TargetUserID,
			Detail:         req.Detail,
		})
		c.JSON(http.StatusAccepted, gin.H{"status": "emitted"})
	})
}
