package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/track/internal/handlers"
)

type authRouteDeps struct {
	Handler *handlers.AuthHandler
	Limiter gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, deps authRouteDeps) {
	auth := engine.Group("/api/auth")
	auth.Use(deps.Limiter)
	{
		auth.POST("/register", deps.Handler.Register)
		auth.POST("/login", deps.Handler.Login)
		auth.GET("/me", requireAuth, deps.Handler.Me)
	}
}
