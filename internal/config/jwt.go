package config

import (
	"fmt"
	"os"
	"strconv"
)

// JWTConfig holds configuration for JWT token validation.
type JWTConfig struct {
	Secret          string `yaml:"jwt_secret"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

// applyEnvOverrides reads JWT_SECRET and JWT_EXPIRATION_HOURS.
func (c *JWTConfig) applyEnvOverrides() error {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		c.ExpirationHours = hours
	}
	return nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}

// RequireSecret returns an error when no signing secret is configured.
func (c *JWTConfig) RequireSecret() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	return nil
}
