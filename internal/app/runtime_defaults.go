package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/track/pkg/crypto"
)

const jwtSecretBytes = 48

// ApplyRuntimeDefaults fills secrets that were not configured so a bare
// development setup can start. The returned map names the generated keys
// without exposing their values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	if strings.TrimSpace(cfg.Server.FrontendURL) == "" {
		cfg.Server.FrontendURL = "http://localhost:5173"
	}
	if strings.TrimSpace(cfg.Email.SMTP.From) == "" {
		cfg.Email.SMTP.From = "noreply@saas-app.com"
	}

	return generated, nil
}
