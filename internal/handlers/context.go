package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/track/internal/auditctx"
	"github.com/charlesng35/track/internal/middleware"
	"github.com/charlesng35/track/pkg/errors"
	"github.com/charlesng35/track/pkg/response"
)

// requestContext returns the request context tagged with the caller's origin
// for audit records, with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return auditctx.WithOrigin(c.Request.Context(), auditctx.Origin{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString(middleware.CtxRequestIDKey),
	})
}

// currentUserID reads the authenticated caller, writing a 401 when absent.
func currentUserID(c *gin.Context) (string, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return id, true
}
