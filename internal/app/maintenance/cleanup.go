package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/internal/services"
	"github.com/charlesng35/track/pkg/logger"
	"github.com/charlesng35/track/pkg/metrics"
)

const (
	defaultAuditRetentionDays = 90
	defaultOutboxRetention    = 30 * 24 * time.Hour
	defaultDeliverySpec       = "@every 1m"
	defaultCleanupSpec        = "@daily"
)

// Cleaner coordinates background maintenance: retrying notification
// deliveries, pruning audit logs and delivered outbox rows, and reporting
// invitations that expired while still pending.
type Cleaner struct {
	db          *gorm.DB
	dispatcher  *services.Dispatcher
	audit       *services.AuditService
	cron        *cron.Cron
	now         func() time.Time
	log         *zap.Logger
	retention   int
	outboxTTL   time.Duration
	maxAttempts int

	deliverySchedule string
	cleanupSchedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithOutboxRetention adjusts how long sent and cancelled outbox rows are kept.
func WithOutboxRetention(retention time.Duration) Option {
	return func(cleaner *Cleaner) {
		if retention > 0 {
			cleaner.outboxTTL = retention
		}
	}
}

// WithMaxDeliveryAttempts caps how often a notification is retried.
func WithMaxDeliveryAttempts(attempts int) Option {
	return func(cleaner *Cleaner) {
		if attempts > 0 {
			cleaner.maxAttempts = attempts
		}
	}
}

// WithDeliverySchedule overrides the cron specification for delivery retries.
func WithDeliverySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.deliverySchedule = spec
		}
	}
}

// WithCleanupSchedule overrides the cron specification for retention enforcement.
func WithCleanupSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cleanupSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding job being skipped.
func NewCleaner(db *gorm.DB, dispatcher *services.Dispatcher, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:               db,
		dispatcher:       dispatcher,
		audit:            audit,
		now:              time.Now,
		retention:        defaultAuditRetentionDays,
		outboxTTL:        defaultOutboxRetention,
		maxAttempts:      services.DefaultMaxDeliveryAttempts,
		deliverySchedule: defaultDeliverySpec,
		cleanupSchedule:  defaultCleanupSpec,
		log:              logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it when at least one is enabled.
func (c *Cleaner) Start() error {
	if c.dispatcher == nil && c.audit == nil && c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.deliverySchedule, func() {
		if err := c.RunDeliveries(context.Background()); err != nil {
			c.log.Warn("delivery retry failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule deliveries: %w", err)
	}

	if _, err := c.cron.AddFunc(c.cleanupSchedule, func() {
		if err := c.RunCleanup(context.Background()); err != nil {
			c.log.Warn("retention cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule cleanup: %w", err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunDeliveries retries undelivered notifications and refreshes the expired-pending gauge.
func (c *Cleaner) RunDeliveries(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.dispatcher != nil {
		report, err := c.dispatcher.RetryFailed(ctx, c.maxAttempts)
		errs = multierr.Append(errs, err)
		if report.Sent+report.Failed+report.Skipped > 0 {
			c.log.Info("notification retry",
				zap.Int("sent", report.Sent),
				zap.Int("failed", report.Failed),
				zap.Int("skipped", report.Skipped),
			)
		}
	}

	if c.db != nil {
		count, err := CountExpiredPending(ctx, c.db, c.now())
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			metrics.ExpiredPendingInvitations.Set(float64(count))
		}
	}
	return errs
}

// RunCleanup enforces audit and outbox retention.
func (c *Cleaner) RunCleanup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.dispatcher != nil && c.outboxTTL > 0 {
		if _, err := c.dispatcher.PruneSent(ctx, c.outboxTTL); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// RunOnce executes every job sequentially. Used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	return multierr.Combine(c.RunDeliveries(ctx), c.RunCleanup(ctx))
}

// CountExpiredPending counts pending invitations whose expiry has passed. The
// rows are left untouched; expiry is evaluated when a token is read.
func CountExpiredPending(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("count expired invitations: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("status = ? AND expires_at <= ?", models.InvitationStatusPending, now.UTC()).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count expired invitations: %w", err)
	}
	return count, nil
}
