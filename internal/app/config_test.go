package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/track/internal/auth"
	"github.com/charlesng35/track/pkg/crypto"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "http://localhost:5173", cfg.Server.FrontendURL)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/track.sqlite", cfg.Database.Path)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 12, cfg.Auth.PasswordCost)
	require.Equal(t, 72*time.Hour, cfg.Invitations.TTL)
	require.Equal(t, "noreply@saas-app.com", cfg.Email.SMTP.From)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "@every 1m", cfg.Maintenance.DeliveryRetrySchedule)
	require.Equal(t, 5, cfg.Maintenance.MaxDeliveryAttempts)
	require.Equal(t, 60, cfg.Server.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, []string{"https://app.example.com"}, cfg.Server.Origins())
	require.Equal(t, 30, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5432, cfg.Database.Postgres.Port)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 2, cfg.Cache.Redis.DB)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 13, cfg.Auth.BcryptCost())

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, "team@example.com", cfg.Email.SMTP.From)

	require.Equal(t, 48*time.Hour, cfg.Invitations.TTL)
	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, "@daily", cfg.Maintenance.CleanupSchedule)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("TRACK_SERVER_PORT", "7070")
	t.Setenv("TRACK_INVITATIONS_TTL", "24h")
	t.Setenv("TRACK_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 24*time.Hour, cfg.Invitations.TTL)
	require.Equal(t, "from-env", cfg.Auth.JWT.Secret)
}

func TestValidateRejectsBrokenSettings(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:      ServerConfig{Port: 8000},
			Database:    DatabaseConfig{Driver: "sqlite"},
			Invitations: InvitationConfig{TTL: time.Hour},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Driver = "oracle"
	require.ErrorContains(t, cfg.Validate(), "unsupported database driver")

	cfg = valid()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Invitations.TTL = 0
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Cache.Redis.Enabled = true
	require.ErrorContains(t, cfg.Validate(), "cache.redis.address")

	cfg = valid()
	cfg.Email.SMTP.Enabled = true
	require.ErrorContains(t, cfg.Validate(), "email.smtp.host")
}

func TestDatabaseSettings(t *testing.T) {
	sqlite := DatabaseConfig{Driver: "SQLite", Path: "/tmp/track.db"}.DatabaseSettings()
	require.Equal(t, "sqlite", sqlite.Driver)
	require.Equal(t, "/tmp/track.db", sqlite.Path)
	require.Empty(t, sqlite.Host)

	pg := DatabaseConfig{
		Driver:   "postgres",
		Postgres: DBAuthConfig{Host: "db", Port: 5433, Database: "track", Username: "u", Password: "p", SSLMode: "disable"},
		MySQL:    DBAuthConfig{Host: "ignored"},
	}.DatabaseSettings()
	require.Equal(t, "db", pg.Host)
	require.Equal(t, 5433, pg.Port)
	require.Equal(t, "track", pg.Name)
	require.Equal(t, map[string]string{"sslmode": "disable"}, pg.Options)

	my := DatabaseConfig{Driver: "mysql", MySQL: DBAuthConfig{Host: "mysql", Database: "track"}}.DatabaseSettings()
	require.Equal(t, "mysql", my.Host)
	require.Nil(t, my.Options)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{JWT: JWTSettings{Secret: "secret", Issuer: "issuer", TTL: 30 * time.Minute}}
	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())

	var empty AuthConfig
	require.Equal(t, auth.DefaultAccessTokenTTL, empty.JWTServiceConfig().AccessTokenTTL)
	require.Equal(t, crypto.MinPasswordCost, empty.BcryptCost())
}

func TestEmailConfigAdapter(t *testing.T) {
	cfg := EmailConfig{SMTP: SMTPConfig{
		Enabled:  true,
		Host:     " smtp.example.com ",
		Port:     2525,
		Username: "user",
		Password: "pass",
		From:     "no-reply@example.com",
		UseTLS:   true,
		Timeout:  10 * time.Second,
	}}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.Equal(t, 10*time.Second, settings.Timeout)
}

func TestServerOriginsPreferExplicitList(t *testing.T) {
	cfg := ServerConfig{FrontendURL: "http://localhost:5173", AllowedOrigins: []string{" https://a.example.com ", ""}}
	require.Equal(t, []string{"https://a.example.com"}, cfg.Origins())
	require.Empty(t, ServerConfig{}.Origins())
}
