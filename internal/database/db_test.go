package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
	require.NoError(t, Ping(context.Background(), db))
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "track.sqlite")
	db, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestAutoMigrateCreatesSchema(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	for _, model := range []interface{}{
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Invitation{},
		&models.NotificationOutbox{},
		&models.AuditLog{},
	} {
		require.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
	require.True(t, db.Migrator().HasIndex(&models.WorkspaceMember{}, "idx_workspace_member"))
}

func TestMembershipUniqueConstraint(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	user := models.User{Email: "a@example.com", Username: "a", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	ws := models.Workspace{Name: "W", OwnerID: user.ID}
	require.NoError(t, db.Create(&ws).Error)

	require.NoError(t, db.Create(&models.WorkspaceMember{WorkspaceID: ws.ID, UserID: user.ID, Role: models.WorkspaceRoleOwner}).Error)
	err := db.Create(&models.WorkspaceMember{WorkspaceID: ws.ID, UserID: user.ID, Role: models.WorkspaceRoleMember}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCloseNil(t *testing.T) {
	require.NoError(t, Close(nil))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}
