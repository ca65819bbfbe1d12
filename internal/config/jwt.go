package config

import (
	"fmt"
	"time"
)

// JWTConfig holds configuration for session token issuance and validation.
type JWTConfig struct {
	Secret         string
	TokenDuration  time.Duration
	CookieName     string
	CookieSecure   bool
	GoogleClientID string
}

// normalize validates the configuration and fills defaults.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.TokenDuration < time.Minute {
		return fmt.Errorf("TOKEN_DURATION must be at least 1 minute, got: %s", c.TokenDuration)
	}
	if c.CookieName == "" {
		c.CookieName = "token"
	}
	return nil
}
