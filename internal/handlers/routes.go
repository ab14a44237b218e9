package handlers

import (
	"github.com/gin-gonic/gin"

	"conversation-service/internal/services"
	"conversation-service/internal/telemetry"
)

// RegisterRoutes mounts the REST API on r. Callers attach identity middleware.
func RegisterRoutes(r gin.IRouter, engine *services.Engine, audit *telemetry.AuditEmitter) {
	conversations := NewConversationHandler(engine, audit)
	messages := NewMessageHandler(engine, audit)
	groups := NewGroupHandler(engine, audit)
	profiles := NewProfileHandler(engine)

	r.GET("/conversations", conversations.List)
	r.GET("/conversations/search", conversations.Search)
	r.POST("/conversations/private", conversations.StartPrivate)
	r.GET("/conversations/:id", conversations.Get)
	r.GET("/conversations/:id/status", conversations.Status)
	r.GET("/conversations/:id/members", conversations.Members)
	r.POST("/conversations/:id/leave", conversations.Leave)
	r.POST("/conversations/:id/clear-history", conversations.ClearHistory)
	r.POST("/conversations/:id/pin", conversations.TogglePin)
	r.POST("/conversations/:id/notifications-mute", conversations.ToggleNotificationMute)
	r.POST("/conversations/:id/read", conversations.MarkRead)
	r.POST("/conversations/:id/report", conversations.Report)

	r.GET("/conversations/:id/messages", messages.List)
	r.POST("/conversations/:id/messages", messages.Send)
	r.POST("/conversations/:id/messages/:message_id/recall", messages.Recall)
	r.DELETE("/conversations/:id/messages/:message_id/all", messages.DeleteForAll)
	r.POST("/messages/:message_id/forward", messages.Forward)
	r.POST("/messages/:message_id/report", messages.Report)

	r.POST("/groups", groups.CreateGroup)
	r.POST("/groups/:id/join", groups.RequestJoin)
	r.GET("/groups/:id/requests", groups.ListPending)
	r.POST("/groups/:id/requests/:user_id", groups.HandleRequest)
	r.POST("/groups/:id/invite", groups.Invite)
	r.POST("/groups/:id/members/:user_id/mute", groups.Mute)
	r.DELETE("/groups/:id/members/:user_id/mute", groups.Unmute)
	r.DELETE("/groups/:id/members/:user_id", groups.Kick)
	r.PUT("/groups/:id/members/:user_id/admin", groups.SetAdmin)
	r.GET("/groups/:id/muted", groups.MutedList)
	r.GET("/groups/:id/blocks", groups.BlockList)
	r.POST("/groups/:id/blocks", groups.Block)
	r.DELETE("/groups/:id/blocks/:user_id", groups.Unblock)

	r.GET("/users/me/profile", profiles.Get)
	r.PUT("/users/me/profile", profiles.Update)
}
