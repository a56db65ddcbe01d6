package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/charlesng35/track/internal/auth"
	"github.com/charlesng35/track/internal/cache"
	"github.com/charlesng35/track/internal/handlers"
	"github.com/charlesng35/track/internal/middleware"
	"github.com/charlesng35/track/internal/monitoring"
	"github.com/charlesng35/track/internal/services"
)

// RateLimitSettings bounds the public endpoints per client and route.
type RateLimitSettings struct {
	Requests int
	Window   time.Duration
}

// Deps carries everything the HTTP surface is built from.
type Deps struct {
	JWT         *iauth.JWTService
	Users       *services.UserService
	Workspaces  *services.WorkspaceService
	Invitations *services.InvitationService
	Health      *monitoring.Manager
	RateStore   cache.Store
	RateLimit   RateLimitSettings
	Origins     []string
}

func (d Deps) validate() error {
	switch {
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Users == nil:
		return fmt.Errorf("user service must be provided")
	case d.Workspaces == nil:
		return fmt.Errorf("workspace service must be provided")
	case d.Invitations == nil:
		return fmt.Errorf("invitation service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.RateStore == nil {
		deps.RateStore = cache.NewMemoryStore()
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(deps.Origins...))

	r.NoRoute(middleware.NotFoundHandler)

	registerHealthRoutes(r, deps.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.Auth(deps.JWT)

	registerAuthRoutes(r, requireAuth, authRouteDeps{
		Handler: handlers.NewAuthHandler(deps.Users, deps.JWT),
		Limiter: publicLimiter(deps, "auth"),
	})
	registerWorkspaceRoutes(r, requireAuth, handlers.NewWorkspaceHandler(deps.Workspaces, deps.Invitations))
	registerInvitationRoutes(r, invitationRouteDeps{
		Handler: handlers.NewInvitationHandler(deps.Invitations, deps.JWT),
		Limiter: publicLimiter(deps, "invitations"),
	})

	return r, nil
}

func publicLimiter(deps Deps, name string) gin.HandlerFunc {
	return middleware.RateLimit(deps.RateStore, middleware.RateLimitOptions{
		Name:     name,
		Requests: deps.RateLimit.Requests,
		Window:   deps.RateLimit.Window,
	})
}
