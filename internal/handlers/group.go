package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/models"
	"conversation-service/internal/services"
	"conversation-service/internal/telemetry"
)

// GroupHandler manages group creation, membership and moderation endpoints.
type GroupHandler struct {
	engine *services.Engine
	audit  *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(engine *services.Engine, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{engine: engine, audit: audit}
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		AvatarURL   string   `json:"avatar_url"`
		IsPublic    bool     `json:"is_public"`
		MemberIDs   []int64  `json:"member_ids"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
		City        string   `json:"city"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.CreateGroupInput{
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		IsPublic:    req.IsPublic,
		MemberIDs:   req.MemberIDs,
	}
	if req.Latitude != nil && req.Longitude != nil {
		in.Geo = &models.GeoTag{Latitude: *req.Latitude, Longitude: *req.Longitude, City: req.City}
	}
	conv, err := h.engine.Conversations.CreateGroup(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "Group created")
	c.JSON(http.StatusCreated, gin.H{"group_id": conv.ID})
}

// RequestJoin handles POST /groups/:id/join.
func (h *GroupHandler) RequestJoin(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.engine.Joins.Request(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": p.Status})
}

// ListPending handles GET /groups/:id/requests.
func (h *GroupHandler) ListPending(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	pending, err := h.engine.Joins.ListPending(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": pending})
}

// HandleRequest handles POST /groups/:id/requests/:user_id.
func (h *GroupHandler) HandleRequest(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	requesterID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, ok := models.ParseJoinAction(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be ACCEPT or REJECT"})
		return
	}
	if err := h.engine.Joins.Handle(c.Request.Context(), groupID, userID, requesterID, action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Invite handles POST /groups/:id/invite.
func (h *GroupHandler) Invite(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.engine.Moderation.Invite(c.Request.Context(), groupID, userID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Mute handles POST /groups/:id/members/:user_id/mute.
func (h *GroupHandler) Mute(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	var req struct {
		Until *time.Time `json:"until"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.engine.Moderation.Mute(c.Request.Context(), groupID, userID, targetID, req.Until); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unmute handles DELETE /groups/:id/members/:user_id/mute.
func (h *GroupHandler) Unmute(c *gin.Context) {
	h.memberAction(c, h.engine.Moderation.Unmute)
}

// Kick handles DELETE /groups/:id/members/:user_id.
func (h *GroupHandler) Kick(c *gin.Context) {
	h.memberAction(c, h.engine.Moderation.Kick)
}

// Unblock handles DELETE /groups/:id/blocks/:user_id.
func (h *GroupHandler) Unblock(c *gin.Context) {
	h.memberAction(c, h.engine.Moderation.Unblock)
}

func (h *GroupHandler) memberAction(c *gin.Context, action func(ctx context.Context, groupID, actorID, targetID int64) error) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := action(c.Request.Context(), groupID, userID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Block handles POST /groups/:id/blocks.
func (h *GroupHandler) Block(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserID int64  `json:"user_id" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.Moderation.Block(c.Request.Context(), groupID, userID, req.UserID, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BlockList handles GET /groups/:id/blocks.
func (h *GroupHandler) BlockList(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	blocks, err := h.engine.Moderation.BlockList(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

// MutedList handles GET /groups/:id/muted.
func (h *GroupHandler) MutedList(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	muted, err := h.engine.Moderation.MutedList(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": muted})
}

// SetAdmin handles PUT /groups/:id/members/:user_id/admin.
func (h *GroupHandler) SetAdmin(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, ok := models.ParseAdminAction(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be PROMOTE or DEMOTE"})
		return
	}
	if err := h.engine.Moderation.SetAdmin(c.Request.Context(), groupID, userID, targetID, action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
