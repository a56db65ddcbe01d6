package models

import "time"

// InvitationStatus tracks the lifecycle of an invitation.
type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

// DeliveryStatus records whether the invitation email reached the mail transport.
type DeliveryStatus string

const (
	DeliveryStatusQueued DeliveryStatus = "queued"
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// Invitation is a token-addressable offer for an email address to join a workspace.
// Only the SHA-256 digest of the token is stored.
type Invitation struct {
	BaseModel

	Email       string           `gorm:"type:varchar(255);not null;index" json:"email"`
	WorkspaceID string           `gorm:"type:varchar(36);not null;index" json:"workspace_id"`
	InvitedBy   string           `gorm:"type:varchar(36);not null" json:"invited_by"`
	Role        WorkspaceRole    `gorm:"type:varchar(16);not null;default:member" json:"role"`
	TokenHash   string           `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	Status      InvitationStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	ExpiresAt   time.Time        `gorm:"not null;index" json:"expires_at"`
	AcceptedAt  *time.Time       `json:"accepted_at"`

	DeliveryStatus    DeliveryStatus `gorm:"type:varchar(16);default:queued" json:"delivery_status"`
	DeliveryAttempts  int            `gorm:"default:0" json:"delivery_attempts"`
	LastDeliveryError string         `gorm:"type:text" json:"-"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
	Inviter   *User      `gorm:"foreignKey:InvitedBy;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the invitation can still be resolved at now.
func (i Invitation) IsActive(now time.Time) bool {
	return i.Status == InvitationStatusPending && now.Before(i.ExpiresAt)
}
