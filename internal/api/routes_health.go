package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/track/internal/handlers"
	"github.com/charlesng35/track/internal/monitoring"
	"github.com/charlesng35/track/pkg/response"
)

func registerHealthRoutes(r *gin.Engine, manager *monitoring.Manager) {
	r.GET("/health", handlers.Health(manager))
	r.GET("/health/live", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": monitoring.StatusUp})
	})
}
