package models

// User is an account that can belong to any number of workspaces.
type User struct {
	BaseModel

	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	FullName string `gorm:"type:varchar(255)" json:"full_name"`
	Password string `gorm:"not null" json:"-"`
	Avatar   string `gorm:"type:text" json:"avatar_url"`

	DefaultWorkspaceID *string `gorm:"type:varchar(36);index" json:"default_workspace_id"`
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// PublicUser is the projection of User that is safe to render to other members.
type PublicUser struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	Username           string  `json:"username"`
	FullName           string  `json:"full_name"`
	Avatar             string  `json:"avatar_url"`
	DefaultWorkspaceID *string `json:"default_workspace_id,omitempty"`
}

// Public strips credentials from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:                 u.ID,
		Email:              u.Email,
		Username:           u.Username,
		FullName:           u.FullName,
		Avatar:             u.Avatar,
		DefaultWorkspaceID: u.DefaultWorkspaceID,
	}
}
