package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkspaceRole is the role a member holds inside one workspace.
type WorkspaceRole string

const (
	WorkspaceRoleOwner  WorkspaceRole = "owner"
	WorkspaceRoleAdmin  WorkspaceRole = "admin"
	WorkspaceRoleMember WorkspaceRole = "member"
)

// Valid reports whether r is one of the known roles.
func (r WorkspaceRole) Valid() bool {
	switch r {
	case WorkspaceRoleOwner, WorkspaceRoleAdmin, WorkspaceRoleMember:
		return true
	}
	return false
}

// WorkspaceMember joins a user to a workspace. (workspace_id, user_id) is unique.
type WorkspaceMember struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	WorkspaceID string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_workspace_member,priority:1" json:"workspace_id"`
	UserID      string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_workspace_member,priority:2;index" json:"user_id"`
	Role        WorkspaceRole `gorm:"type:varchar(16);not null;default:member" json:"role"`
	JoinedAt    time.Time     `gorm:"not null;index" json:"joined_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate assigns an id and join time when absent.
func (m *WorkspaceMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = tx.NowFunc()
	}
	return nil
}
