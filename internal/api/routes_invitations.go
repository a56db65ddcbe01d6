package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/track/internal/handlers"
)

type invitationRouteDeps struct {
	Handler *handlers.InvitationHandler
	Limiter gin.HandlerFunc
}

// Invitation routes are public; the token itself is the credential.
func registerInvitationRoutes(engine *gin.Engine, deps invitationRouteDeps) {
	invitations := engine.Group("/api/invitations")
	invitations.Use(deps.Limiter)
	{
		invitations.GET("/:token", deps.Handler.Preview)
		invitations.POST("/:token/accept", deps.Handler.Accept)
	}
}
