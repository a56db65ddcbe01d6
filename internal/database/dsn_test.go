package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "track", Name: "track"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=track dbname=track sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "host=db.example.com port=6543 user=user dbname=db password=pass search_path=public sslmode=require", dsn)
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{User: "only"})
	require.Error(t, err)

	dsn, err := buildPostgresDSN(Config{DSN: "postgres://override"})
	require.NoError(t, err)
	require.Equal(t, "postgres://override", dsn)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "root", Password: "pw", Name: "track"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "root:pw@tcp(127.0.0.1:3306)/track?"), dsn)
	require.Contains(t, dsn, "charset=utf8mb4&loc=UTC&parseTime=True")

	_, err = buildMySQLDSN(Config{Name: "track"})
	require.Error(t, err)
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{})
	require.NoError(t, err)
	require.Contains(t, dsn, "memory")

	dsn, err = buildSQLiteDSN(Config{Path: "track.sqlite"})
	require.NoError(t, err)
	require.Equal(t, "file:track.sqlite?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", dsn)
}
