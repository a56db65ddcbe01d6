package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/track/internal/monitoring"
	"github.com/charlesng35/track/pkg/response"
)

// Health reports dependency status. A failing critical probe yields 503 with
// the report in the payload.
func Health(manager *monitoring.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			response.Success(c, http.StatusOK, monitoring.Report{Status: monitoring.StatusUp})
			return
		}

		report := manager.Evaluate(requestContext(c))
		if !report.Healthy() {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    report,
				Error:   "Service unavailable",
				Code:    "SERVICE_UNAVAILABLE",
			})
			return
		}
		response.Success(c, http.StatusOK, report)
	}
}
