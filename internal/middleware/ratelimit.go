package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/track/internal/cache"
	"github.com/charlesng35/track/pkg/errors"
	"github.com/charlesng35/track/pkg/logger"
	"github.com/charlesng35/track/pkg/metrics"
	"github.com/charlesng35/track/pkg/response"
)

// RateLimitOptions configures a fixed-window limiter.
type RateLimitOptions struct {
	Name     string
	Requests int
	Window   time.Duration
}

// RateLimit limits requests per (client IP, route) within a fixed window. The
// counters live in store so that limits hold across instances when Redis is
// configured. Store failures let the request through.
func RateLimit(store cache.Store, opts RateLimitOptions) gin.HandlerFunc {
	if opts.Name == "" {
		opts.Name = "api"
	}

	return func(c *gin.Context) {
		if store == nil || opts.Requests <= 0 || opts.Window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := "ratelimit:" + opts.Name + ":" + c.ClientIP() + ":" + route

		count, ttl, err := store.IncrementWithTTL(c.Request.Context(), key, opts.Window)
		if err != nil {
			logger.WithModule("ratelimit").Warn("rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := opts.Requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(opts.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))

		if int(count) > opts.Requests {
			metrics.RateLimited.WithLabelValues(opts.Name).Inc()
			c.Header("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
