package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultTokenTTL is the validity window of issued access tokens.
const DefaultTokenTTL = 24 * time.Hour

// minSecretLen bounds the HS256 secret from below.
const minSecretLen = 16

// TokenConfig configures issuing and verifying HS256 access tokens.
//
// The secret is deployment-provided and shared by every process that verifies tokens.
type TokenConfig struct {
	Secret []byte
	// Issuer is written to and required in the `iss` claim when non-empty.
	Issuer string
	TTL    time.Duration
}

func LoadTokenConfigFromEnv() (TokenConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return TokenConfig{}, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	if len(secret) < minSecretLen {
		return TokenConfig{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	}

	cfg := TokenConfig{
		Secret: []byte(secret),
		Issuer: os.Getenv("JWT_ISSUER"),
		TTL:    DefaultTokenTTL,
	}

	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return TokenConfig{}, fmt.Errorf("JWT_TTL must be a duration (e.g. 24h): %w", err)
		}
		if d <= 0 {
			return TokenConfig{}, fmt.Errorf("JWT_TTL must be positive")
		}
		cfg.TTL = d
	}

	return cfg, nil
}
