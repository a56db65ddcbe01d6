package services

import (
	"fmt"
	"time"

	"github.com/charlesng35/track/pkg/crypto"
)

const (
	// DefaultInvitationTTL is the lifetime of an issued or rotated invitation token.
	DefaultInvitationTTL = 72 * time.Hour
	// invitationTokenBytes yields 256 bits of entropy, rendered as 64 hex characters.
	invitationTokenBytes = 32
)

// TokenIssuer mints opaque invitation tokens and their expiry.
type TokenIssuer struct {
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer returns an issuer with the given ttl and clock. Zero values select defaults.
func NewTokenIssuer(ttl time.Duration, clock func() time.Time) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{ttl: ttl, now: clock}
}

// IssuedInvitationToken is a freshly minted token. Hash is what gets stored.
type IssuedInvitationToken struct {
	Token     string
	Hash      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue generates a token from crypto/rand and stamps its expiry.
func (i *TokenIssuer) Issue() (IssuedInvitationToken, error) {
	token, err := crypto.GenerateHexToken(invitationTokenBytes)
	if err != nil {
		return IssuedInvitationToken{}, fmt.Errorf("token issuer: %w", err)
	}
	now := i.now().UTC()
	return IssuedInvitationToken{
		Token:     token,
		Hash:      crypto.HashToken(token),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}, nil
}

// TTL reports the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}
