package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// AccessConfig holds the shared-secret access gate settings. The gate is
// disabled when no secret hash is configured.
type AccessConfig struct {
	SecretHash string
	BcryptCost int
	Pepper     string
}

// NewAccessConfig creates the gate configuration from environment variables.
// It reads ACCESS_SECRET_HASH, BCRYPT_COST (default: 12) and ACCESS_SECRET_PEPPER.
func NewAccessConfig() (*AccessConfig, error) {
	costStr := os.Getenv("BCRYPT_COST")
	if costStr == "" {
		costStr = "12"
	}

	cost, err := strconv.Atoi(costStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
	}

	config := &AccessConfig{
		SecretHash: os.Getenv("ACCESS_SECRET_HASH"),
		BcryptCost: cost,
		Pepper:     os.Getenv("ACCESS_SECRET_PEPPER"),
	}
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// Enabled reports whether a secret hash is configured.
func (c *AccessConfig) Enabled() bool {
	return c != nil && c.SecretHash != ""
}

func (c *AccessConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	if c.SecretHash != "" {
		if _, err := bcrypt.Cost([]byte(c.SecretHash)); err != nil {
			return fmt.Errorf("ACCESS_SECRET_HASH is not a bcrypt hash: %w", err)
		}
	}
	return nil
}

// HashSecret hashes a secret using bcrypt (with optional pepper).
func (c *AccessConfig) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.peppered(secret)), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret checks secret against the configured hash.
func (c *AccessConfig) VerifySecret(secret string) bool {
	if !c.Enabled() {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(c.peppered(secret)))
	return err == nil
}

func (c *AccessConfig) peppered(secret string) string {
	if c.Pepper == "" {
		return secret
	}
	return secret + c.Pepper
}
