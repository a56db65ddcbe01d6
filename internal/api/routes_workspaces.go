package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/track/internal/handlers"
)

func registerWorkspaceRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, h *handlers.WorkspaceHandler) {
	workspaces := engine.Group("/api/workspaces")
	workspaces.Use(requireAuth)
	{
		workspaces.GET("", h.List)
		workspaces.POST("", h.Create)

		// Static segment registered alongside :id; gin resolves it first.
		workspaces.DELETE("/invitations/:id", h.CancelInvitation)
		workspaces.POST("/invitations/:id/resend", h.ResendInvitation)

		workspaces.GET("/:id", h.Get)
		workspaces.PUT("/:id", h.Update)
		workspaces.GET("/:id/members", h.Members)
		workspaces.POST("/:id/invite", h.Invite)
		workspaces.GET("/:id/invitations", h.Invitations)
	}
}
