package app

import (
	"errors"
	"fmt"

	"usersvc/cmd/security/token"
)

// ValidateSecurityConfig enforces the token secret policy at startup.
// Running without a secret, or with a guessable one, is refused outright.
func ValidateSecurityConfig() error {
	_, err := LoadTokenConfig()
	return err
}

// LoadTokenConfig reads the token settings and rewrites policy failures into operator-facing errors.
func LoadTokenConfig() (token.Config, error) {
	cfg, err := token.LoadConfigFromEnv()
	if err == nil {
		return cfg, nil
	}

	// Bytes, not runes: the secret is used as a raw HMAC key.
	switch {
	case errors.Is(err, token.ErrSecretMissing):
		return token.Config{}, fmt.Errorf("security policy: %s is missing", token.SecretEnvKey)
	case errors.Is(err, token.ErrSecretTooShort):
		return token.Config{}, fmt.Errorf("security policy: %s is too short (min %d bytes)", token.SecretEnvKey, token.MinSecretBytes)
	case errors.Is(err, token.ErrConfig):
		return token.Config{}, fmt.Errorf("security policy: invalid USRV_TOKEN_TTL or USRV_TOKEN_CLOCK_SKEW: %w", err)
	default:
		return token.Config{}, err
	}
}
