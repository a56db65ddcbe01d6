package app

import (
	"strings"

	"github.com/charlesng35/track/internal/auth"
	"github.com/charlesng35/track/internal/cache"
	"github.com/charlesng35/track/internal/database"
	"github.com/charlesng35/track/pkg/crypto"
	"github.com/charlesng35/track/pkg/mail"
)

// DatabaseSettings converts DatabaseConfig into database.Config for the selected driver.
func (c DatabaseConfig) DatabaseSettings() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	cfg := database.Config{Driver: driver, DSN: strings.TrimSpace(c.DSN)}

	var host DBAuthConfig
	switch driver {
	case "sqlite":
		cfg.Path = c.Path
		return cfg
	case "postgres":
		host = c.Postgres
		if host.SSLMode != "" {
			cfg.Options = map[string]string{"sslmode": host.SSLMode}
		}
	case "mysql":
		host = c.MySQL
	}

	cfg.Host = host.Host
	cfg.Port = host.Port
	cfg.Name = host.Database
	cfg.User = host.Username
	cfg.Password = host.Password
	return cfg
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}
	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// BcryptCost returns the configured password cost, raised to the minimum.
func (c AuthConfig) BcryptCost() int {
	if c.PasswordCost < crypto.MinPasswordCost {
		return crypto.MinPasswordCost
	}
	return c.PasswordCost
}

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     strings.TrimSpace(c.SMTP.Host),
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     strings.TrimSpace(c.SMTP.From),
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// Origins returns the CORS allow-list, defaulting to the frontend URL.
func (c ServerConfig) Origins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins)+1)
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 && strings.TrimSpace(c.FrontendURL) != "" {
		origins = append(origins, strings.TrimRight(strings.TrimSpace(c.FrontendURL), "/"))
	}
	return origins
}
