package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/track/internal/models"
	apperrors "github.com/charlesng35/track/pkg/errors"
)

func TestWorkspaceCreateIsTransactional(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	ws, err := f.workspaces.Create(ctx, f.owner.ID, CreateWorkspaceInput{
		Name:        "  Research Lab ",
		Description: "R&D",
	})
	require.NoError(t, err)
	require.Equal(t, "Research Lab", ws.Name)
	require.Equal(t, "research-lab", ws.Slug)
	require.Equal(t, f.owner.ID, ws.OwnerID)

	var member models.WorkspaceMember
	require.NoError(t, f.db.Where("workspace_id = ? AND user_id = ?", ws.ID, f.owner.ID).Take(&member).Error)
	require.Equal(t, models.WorkspaceRoleOwner, member.Role)

	var owner models.User
	require.NoError(t, f.db.Where("id = ?", f.owner.ID).Take(&owner).Error)
	require.Equal(t, ws.ID, *owner.DefaultWorkspaceID)

	_, err = f.workspaces.Create(ctx, f.owner.ID, CreateWorkspaceInput{Name: "   "})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	before := countRows(t, f.db, &models.Workspace{}, "1 = 1")
	_, err = f.workspaces.Create(ctx, "missing-user", CreateWorkspaceInput{Name: "Ghost"})
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Equal(t, before, countRows(t, f.db, &models.Workspace{}, "1 = 1"))
}

func TestWorkspaceUpdateReplacesFields(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()
	domain := "Example.COM"

	updated, err := f.workspaces.Update(ctx, f.workspace.ID, f.owner.ID, UpdateWorkspaceInput{
		Name:          "Acme Corp",
		Description:   "New description",
		Domain:        &domain,
		RequireDomain: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", updated.Name)
	require.Equal(t, "acme-corp", updated.Slug)
	require.NotNil(t, updated.Domain)
	require.Equal(t, "example.com", *updated.Domain)
	require.True(t, updated.RequireDomain)

	updated, err = f.workspaces.Update(ctx, f.workspace.ID, f.owner.ID, UpdateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	require.Nil(t, updated.Domain)
	require.Empty(t, updated.Description)
	require.False(t, updated.RequireDomain)

	_, err = f.workspaces.Update(ctx, f.workspace.ID, f.owner.ID, UpdateWorkspaceInput{Name: " "})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestWorkspaceMembersVisibleToMembersOnly(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	admin := f.addMember(t, "admin", models.WorkspaceRoleAdmin)
	member := f.addMember(t, "member", models.WorkspaceRoleMember)
	outsider := f.seedUser(t, "outsider")

	// Join times are assigned by the database clock; pin them for ordering.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{f.owner.ID, admin.ID, member.ID} {
		require.NoError(t, f.db.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND user_id = ?", f.workspace.ID, id).
			Update("joined_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	members, err := f.workspaces.ListMembers(ctx, f.workspace.ID, member.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	require.Equal(t, []string{"owner", "admin", "member"},
		[]string{members[0].User.Username, members[1].User.Username, members[2].User.Username})
	require.Equal(t, models.WorkspaceRoleOwner, members[0].Role)

	_, err = f.workspaces.ListMembers(ctx, f.workspace.ID, outsider.ID)
	require.ErrorIs(t, err, ErrInsufficientPermissions)

	ws, err := f.workspaces.Get(ctx, f.workspace.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", ws.Name)

	_, err = f.workspaces.Get(ctx, f.workspace.ID, outsider.ID)
	require.ErrorIs(t, err, ErrInsufficientPermissions)

	// Unknown workspaces are indistinguishable from foreign ones.
	_, err = f.workspaces.Get(ctx, "00000000-0000-0000-0000-000000000000", f.owner.ID)
	require.ErrorIs(t, err, ErrInsufficientPermissions)
}

func TestWorkspaceListForUser(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	second, err := f.workspaces.Create(ctx, f.owner.ID, CreateWorkspaceInput{Name: "Second"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Workspace{}).Where("id = ?", second.ID).
		Update("created_at", time.Now().UTC().Add(time.Hour)).Error)

	list, err := f.workspaces.ListForUser(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, f.workspace.ID, list[1].ID)
	require.Equal(t, models.WorkspaceRoleOwner, list[0].UserRole)

	outsider := f.seedUser(t, "outsider")
	list, err = f.workspaces.ListForUser(ctx, outsider.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}
