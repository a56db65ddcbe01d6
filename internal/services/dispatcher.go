package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/pkg/logger"
	"github.com/charlesng35/track/pkg/mail"
	"github.com/charlesng35/track/pkg/metrics"
)

const (
	// DefaultMaxDeliveryAttempts bounds retries of a single outbox row.
	DefaultMaxDeliveryAttempts = 5
	deliveryBatchSize          = 100
	smtpDisabledNote           = "delivery disabled"
)

// DeliveryReport summarises a delivery pass.
type DeliveryReport struct {
	Sent    int
	Failed  int
	Skipped int
}

func (r *DeliveryReport) add(other DeliveryReport) {
	r.Sent += other.Sent
	r.Failed += other.Failed
	r.Skipped += other.Skipped
}

// DispatcherOption customises Dispatcher behaviour.
type DispatcherOption func(*Dispatcher)

// WithDispatcherClock injects a custom clock.
func WithDispatcherClock(clock func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if clock != nil {
			d.now = clock
		}
	}
}

// WithDispatcherSender overrides the envelope sender address.
func WithDispatcherSender(from string) DispatcherOption {
	return func(d *Dispatcher) {
		d.from = from
	}
}

// WithDispatcherTimeout bounds a single send.
func WithDispatcherTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// Dispatcher delivers outbox rows through a Mailer. Rows are written by the
// transaction that produced them and sent only after that transaction commits.
type Dispatcher struct {
	db      *gorm.DB
	mailer  mail.Mailer
	from    string
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewDispatcher constructs a Dispatcher. A nil mailer behaves like disabled SMTP.
func NewDispatcher(db *gorm.DB, mailer mail.Mailer, opts ...DispatcherOption) (*Dispatcher, error) {
	if db == nil {
		return nil, errors.New("dispatcher: db is required")
	}

	d := &Dispatcher{
		db:      db,
		mailer:  mailer,
		timeout: 30 * time.Second,
		now:     time.Now,
		log:     logger.WithModule("notifications"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Enqueue stores msg inside tx.
func (d *Dispatcher) Enqueue(tx *gorm.DB, msg *models.NotificationOutbox) error {
	if msg == nil {
		return errors.New("dispatcher: nil message")
	}
	msg.Status = models.OutboxStatusPending
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("dispatcher: enqueue %s: %w", msg.Kind, err)
	}
	return nil
}

// CancelForInvitation marks unsent rows of the invitation as cancelled. Used
// when the token they carry is rotated or the invitation is resolved.
func (d *Dispatcher) CancelForInvitation(tx *gorm.DB, invitationID string) error {
	err := tx.Model(&models.NotificationOutbox{}).
		Where("invitation_id = ? AND status IN ?", invitationID, []models.OutboxStatus{models.OutboxStatusPending, models.OutboxStatusFailed}).
		Update("status", models.OutboxStatusCancelled).Error
	if err != nil {
		return fmt.Errorf("dispatcher: cancel outbox for invitation: %w", err)
	}
	return nil
}

// Deliver sends the identified rows. Transport failures are recorded on the rows
// and counted in the report; only bookkeeping failures are returned.
func (d *Dispatcher) Deliver(ctx context.Context, ids ...string) (DeliveryReport, error) {
	ctx = ensureContext(ctx)
	if len(ids) == 0 {
		return DeliveryReport{}, nil
	}

	var rows []models.NotificationOutbox
	if err := d.db.WithContext(ctx).
		Where("id IN ? AND status IN ?", ids, []models.OutboxStatus{models.OutboxStatusPending, models.OutboxStatusFailed}).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return DeliveryReport{}, fmt.Errorf("dispatcher: load outbox: %w", err)
	}
	return d.deliverRows(ctx, rows)
}

// RetryFailed re-sends pending and failed rows with fewer than maxAttempts attempts.
func (d *Dispatcher) RetryFailed(ctx context.Context, maxAttempts int) (DeliveryReport, error) {
	ctx = ensureContext(ctx)
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxDeliveryAttempts
	}

	var rows []models.NotificationOutbox
	if err := d.db.WithContext(ctx).
		Where("status IN ? AND attempts < ?", []models.OutboxStatus{models.OutboxStatusPending, models.OutboxStatusFailed}, maxAttempts).
		Order("created_at ASC").
		Limit(deliveryBatchSize).
		Find(&rows).Error; err != nil {
		return DeliveryReport{}, fmt.Errorf("dispatcher: load retryable outbox: %w", err)
	}
	return d.deliverRows(ctx, rows)
}

// PruneSent deletes delivered or cancelled rows older than retention.
func (d *Dispatcher) PruneSent(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = ensureContext(ctx)
	if retention <= 0 {
		return 0, errors.New("dispatcher: retention must be positive")
	}
	cutoff := d.now().UTC().Add(-retention)
	result := d.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []models.OutboxStatus{models.OutboxStatusSent, models.OutboxStatusCancelled}, cutoff).
		Delete(&models.NotificationOutbox{})
	if result.Error != nil {
		return 0, fmt.Errorf("dispatcher: prune outbox: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (d *Dispatcher) deliverRows(ctx context.Context, rows []models.NotificationOutbox) (DeliveryReport, error) {
	var (
		report DeliveryReport
		errs   error
	)
	for i := range rows {
		single, err := d.deliverOne(ctx, &rows[i])
		report.add(single)
		errs = multierr.Append(errs, err)
	}
	return report, errs
}

func (d *Dispatcher) deliverOne(ctx context.Context, row *models.NotificationOutbox) (DeliveryReport, error) {
	// Claim the row so concurrent passes do not send it twice.
	claim := d.db.WithContext(ctx).Model(&models.NotificationOutbox{}).
		Where("id = ? AND attempts = ? AND status IN ?", row.ID, row.Attempts, []models.OutboxStatus{models.OutboxStatusPending, models.OutboxStatusFailed}).
		Update("attempts", gorm.Expr("attempts + 1"))
	if claim.Error != nil {
		return DeliveryReport{}, fmt.Errorf("dispatcher: claim %s: %w", row.ID, claim.Error)
	}
	if claim.RowsAffected == 0 {
		return DeliveryReport{}, nil
	}
	row.Attempts++

	sendErr := d.send(ctx, row)

	now := d.now().UTC()
	updates := map[string]any{}
	var (
		report         DeliveryReport
		deliveryStatus models.DeliveryStatus
		result         string
	)
	switch {
	case sendErr == nil:
		updates["status"] = models.OutboxStatusSent
		updates["sent_at"] = now
		updates["last_error"] = ""
		deliveryStatus = models.DeliveryStatusSent
		report.Sent = 1
		result = "sent"
	case errors.Is(sendErr, mail.ErrSMTPDisabled):
		updates["status"] = models.OutboxStatusSent
		updates["last_error"] = smtpDisabledNote
		deliveryStatus = models.DeliveryStatusSent
		report.Skipped = 1
		result = "skipped"
	default:
		updates["status"] = models.OutboxStatusFailed
		updates["last_error"] = sendErr.Error()
		deliveryStatus = models.DeliveryStatusFailed
		report.Failed = 1
		result = "failed"
		d.log.Warn("notification delivery failed",
			zap.String("outbox_id", row.ID),
			zap.String("kind", string(row.Kind)),
			zap.Int("attempt", row.Attempts),
			zap.Error(sendErr),
		)
	}
	metrics.Notifications.WithLabelValues(string(row.Kind), result).Inc()

	var errs error
	if err := d.db.WithContext(ctx).Model(&models.NotificationOutbox{}).
		Where("id = ?", row.ID).
		Updates(updates).Error; err != nil {
		errs = multierr.Append(errs, fmt.Errorf("dispatcher: record delivery %s: %w", row.ID, err))
	}

	if row.InvitationID != nil && row.Kind == models.NotificationKindInvitation {
		invUpdates := map[string]any{
			"delivery_status":     deliveryStatus,
			"delivery_attempts":   gorm.Expr("delivery_attempts + 1"),
			"last_delivery_error": updates["last_error"],
		}
		if err := d.db.WithContext(ctx).Model(&models.Invitation{}).
			Where("id = ?", *row.InvitationID).
			Updates(invUpdates).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dispatcher: mirror delivery on invitation: %w", err))
		}
	}

	return report, errs
}

func (d *Dispatcher) send(ctx context.Context, row *models.NotificationOutbox) error {
	if d.mailer == nil {
		return mail.ErrSMTPDisabled
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return d.mailer.Send(sendCtx, mail.Message{
		From:    d.from,
		To:      []string{row.Recipient},
		Subject: row.Subject,
		Text:    row.TextBody,
		HTML:    row.HTMLBody,
	})
}
