package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records a security relevant action taken against a workspace.
type AuditLog struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ActorID     *string        `gorm:"type:varchar(36);index" json:"actor_id"`
	WorkspaceID *string        `gorm:"type:varchar(36);index" json:"workspace_id"`
	Action      string         `gorm:"not null;index" json:"action"`
	Resource    string         `gorm:"index" json:"resource"`
	Result      string         `gorm:"not null" json:"result"`
	IPAddress   string         `json:"ip_address"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
