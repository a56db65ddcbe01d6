package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/track/internal/database/testutil"
	"github.com/charlesng35/track/internal/models"
	apperrors "github.com/charlesng35/track/pkg/errors"
)

func TestUserRegisterCreatesPersonalWorkspace(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{
		Email:    "Ada@Example.com",
		Username: "ada",
		FullName: "Ada Lovelace",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.DefaultWorkspaceID)

	var ws models.Workspace
	require.NoError(t, db.Where("id = ?", *user.DefaultWorkspaceID).Take(&ws).Error)
	require.Equal(t, "Ada Lovelace's Workspace", ws.Name)
	require.Equal(t, "Personal workspace for Ada Lovelace", ws.Description)
	require.Equal(t, user.ID, ws.OwnerID)

	var member models.WorkspaceMember
	require.NoError(t, db.Where("workspace_id = ? AND user_id = ?", ws.ID, user.ID).Take(&member).Error)
	require.Equal(t, models.WorkspaceRoleOwner, member.Role)

	_, err = svc.Register(ctx, RegisterInput{Email: "other@example.com", Username: "ada", Password: "secret1"})
	require.ErrorIs(t, err, ErrUsernameTaken)
	_, err = svc.Register(ctx, RegisterInput{Email: "ADA@example.com", Username: "ada2", Password: "secret1"})
	require.ErrorIs(t, err, ErrEmailTaken)
	_, err = svc.Register(ctx, RegisterInput{Email: "x@example.com", Username: "x y", Password: "secret1"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	var workspaces int64
	require.NoError(t, db.Model(&models.Workspace{}).Count(&workspaces).Error)
	require.EqualValues(t, 1, workspaces)
}

func TestUserAuthenticate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Username: "ada", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " ADA@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	got, err := svc.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", got.Username)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
