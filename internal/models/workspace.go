package models

import "gorm.io/datatypes"

// Workspace is the tenant boundary grouping members and their invitations.
type Workspace struct {
	BaseModel

	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string         `gorm:"type:varchar(255);index" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	Domain        *string        `gorm:"type:varchar(255)" json:"domain"`
	RequireDomain bool           `gorm:"default:false" json:"require_domain"`
	OwnerID       string         `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	Settings      datatypes.JSON `json:"settings,omitempty"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
}
