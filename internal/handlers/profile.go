package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/services"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	engine *services.Engine
}

func NewProfileHandler(engine *services.Engine) *ProfileHandler {
	return &ProfileHandler{engine: engine}
}

// Get handles GET /users/me/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	u, err := h.engine.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Update handles PUT /users/me/profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Nickname  string `json:"nickname"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.engine.Profiles.Update(c.Request.Context(), userID, req.Nickname, req.AvatarURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
