package models

import "time"

// NotificationKind identifies the template an outbox row was rendered from.
type NotificationKind string

const (
	NotificationKindInvitation NotificationKind = "invitation"
	NotificationKindWelcome    NotificationKind = "welcome"
)

// OutboxStatus tracks delivery of a queued notification.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"

	// OutboxStatusCancelled marks rows superseded by a token rotation or a resolved invitation.
	OutboxStatusCancelled OutboxStatus = "cancelled"
)

// NotificationOutbox is an email rendered inside the transaction that caused it
// and delivered after commit.
type NotificationOutbox struct {
	BaseModel

	Kind         NotificationKind `gorm:"type:varchar(32);not null;index" json:"kind"`
	Recipient    string           `gorm:"type:varchar(255);not null" json:"recipient"`
	Subject      string           `gorm:"type:varchar(255);not null" json:"subject"`
	TextBody     string           `gorm:"type:text" json:"-"`
	HTMLBody     string           `gorm:"type:text" json:"-"`
	Status       OutboxStatus     `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	Attempts     int              `gorm:"default:0" json:"attempts"`
	LastError    string           `gorm:"type:text" json:"last_error,omitempty"`
	InvitationID *string          `gorm:"type:varchar(36);index" json:"invitation_id,omitempty"`
	SentAt       *time.Time       `json:"sent_at"`
}

func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}
