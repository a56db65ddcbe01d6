package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/api"
	"github.com/charlesng35/track/internal/app"
	"github.com/charlesng35/track/internal/app/maintenance"
	iauth "github.com/charlesng35/track/internal/auth"
	"github.com/charlesng35/track/internal/cache"
	"github.com/charlesng35/track/internal/database"
	"github.com/charlesng35/track/internal/monitoring"
	"github.com/charlesng35/track/internal/monitoring/checks"
	"github.com/charlesng35/track/internal/permissions"
	"github.com/charlesng35/track/internal/services"
	"github.com/charlesng35/track/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Redis      *cache.RedisStore
	RateStore  cache.Store
	Dispatcher *services.Dispatcher
	AuditSvc   *services.AuditService
	Cleaner    *maintenance.Cleaner
	Router     *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	stack.RateStore = cache.NewMemoryStore()
	if cfg.Cache.Redis.Enabled {
		redisStore, redisErr := cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to in-memory rate limits", zap.Error(redisErr))
		} else {
			stack.Redis = redisStore
			stack.RateStore = redisStore
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Info("smtp disabled; notifications will be recorded but not sent")
	}

	checker, err := permissions.NewChecker(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise permission checker: %w", err)
	}

	stack.AuditSvc, err = services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	stack.Dispatcher, err = services.NewDispatcher(stack.DB, mailer,
		services.WithDispatcherSender(cfg.Email.SMTP.From),
		services.WithDispatcherTimeout(cfg.Email.SMTP.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise dispatcher: %w", err)
	}

	users, err := services.NewUserService(stack.DB,
		services.WithUserPasswordCost(cfg.Auth.BcryptCost()),
		services.WithUserAudit(stack.AuditSvc),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	workspaces, err := services.NewWorkspaceService(stack.DB, checker, stack.AuditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise workspace service: %w", err)
	}

	invitations, err := services.NewInvitationService(stack.DB, checker, stack.Dispatcher,
		services.WithInvitationTTL(cfg.Invitations.TTL),
		services.WithPasswordCost(cfg.Auth.BcryptCost()),
		services.WithInvitationAudit(stack.AuditSvc),
		services.WithInvitationNotifier(services.NewNotifier(cfg.Server.FrontendURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise invitation service: %w", err)
	}

	stack.Cleaner = maintenance.NewCleaner(stack.DB, stack.Dispatcher, stack.AuditSvc,
		maintenance.WithDeliverySchedule(cfg.Maintenance.DeliveryRetrySchedule),
		maintenance.WithCleanupSchedule(cfg.Maintenance.CleanupSchedule),
		maintenance.WithMaxDeliveryAttempts(cfg.Maintenance.MaxDeliveryAttempts),
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithOutboxRetention(cfg.Maintenance.OutboxRetention),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	health := monitoring.NewManager()
	health.Register(checks.Database(stack.DB, 0))
	if stack.Redis != nil {
		health.Register(checks.Cache(stack.Redis, 0))
	} else {
		health.Register(checks.Cache(nil, 0))
	}

	stack.Router, err = api.NewRouter(api.Deps{
		JWT:         jwtSvc,
		Users:       users,
		Workspaces:  workspaces,
		Invitations: invitations,
		Health:      health,
		RateStore:   stack.RateStore,
		RateLimit: api.RateLimitSettings{
			Requests: cfg.Server.RateLimit.Requests,
			Window:   cfg.Server.RateLimit.Window,
		},
		Origins: cfg.Server.Origins(),
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
		if err := s.Cleaner.RunDeliveries(ctx); err != nil {
			log.Warn("final delivery pass failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config, log *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseSettings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log.Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}
