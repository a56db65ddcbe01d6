package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	kept := BaseModel{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	require.Equal(t, "fixed", kept.ID)
}

func TestWorkspaceMemberBeforeCreate(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tx := &gorm.DB{Config: &gorm.Config{NowFunc: func() time.Time { return fixed }}}

	member := &WorkspaceMember{}
	require.NoError(t, member.BeforeCreate(tx))
	require.NotEmpty(t, member.ID)
	require.Equal(t, fixed, member.JoinedAt)
}

func TestWorkspaceRoleValid(t *testing.T) {
	require.True(t, WorkspaceRoleOwner.Valid())
	require.True(t, WorkspaceRoleAdmin.Valid())
	require.True(t, WorkspaceRoleMember.Valid())
	require.False(t, WorkspaceRole("guest").Valid())
	require.False(t, WorkspaceRole("").Valid())
}

func TestInvitationIsActive(t *testing.T) {
	now := time.Now()
	inv := Invitation{Status: InvitationStatusPending, ExpiresAt: now.Add(time.Hour)}
	require.True(t, inv.IsActive(now))

	inv.ExpiresAt = now.Add(-time.Second)
	require.False(t, inv.IsActive(now))

	inv.ExpiresAt = now.Add(time.Hour)
	inv.Status = InvitationStatusAccepted
	require.False(t, inv.IsActive(now))
}

func TestUserPublicDropsCredentials(t *testing.T) {
	ws := "ws-1"
	user := User{
		BaseModel:          BaseModel{ID: "u-1"},
		Email:              "a@example.com",
		Username:           "alice",
		Password:           "hash",
		DefaultWorkspaceID: &ws,
	}

	public := user.Public()
	require.Equal(t, "u-1", public.ID)
	require.Equal(t, &ws, public.DefaultWorkspaceID)
	require.Equal(t, "alice", user.DisplayName())

	user.FullName = "Alice A"
	require.Equal(t, "Alice A", user.DisplayName())
}
