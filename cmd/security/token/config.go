package token

import (
	"os"
	"strings"
	"time"
)

const (
	// SecretEnvKey is the env var name for the signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "USRV_TOKEN_SECRET"

	// MinSecretBytes is the smallest accepted HMAC-SHA256 secret.
	MinSecretBytes = 32
)

// Config defines the signing setup shared by issuer and verifier.
type Config struct {
	// Secret is the raw HMAC key. It is never logged.
	Secret []byte

	// Issuer is written to and required in the "iss" claim.
	Issuer string

	// TTL sets "exp" = iat + TTL when positive. Zero issues tokens without expiry.
	TTL time.Duration

	// ClockSkew is the leeway applied to time-based claims during verification.
	ClockSkew time.Duration
}

// DefaultConfig returns every setting except the secret, which has no default.
func DefaultConfig() Config {
	return Config{
		Issuer:    "usersvc",
		TTL:       0,
		ClockSkew: 30 * time.Second,
	}
}

// SecretFromEnv returns the configured secret bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrSecretMissing.
// If too short -> ErrSecretTooShort.
func SecretFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(SecretEnvKey))
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}

// LoadConfigFromEnv loads token configuration from environment variables.
//
// Required:
//   - USRV_TOKEN_SECRET
//
// Optional (durations must be valid Go duration strings):
//   - USRV_TOKEN_ISSUER
//   - USRV_TOKEN_TTL (0 disables expiry)
//   - USRV_TOKEN_CLOCK_SKEW
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	secret, err := SecretFromEnv(MinSecretBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.Secret = secret

	if v := strings.TrimSpace(os.Getenv("USRV_TOKEN_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := strings.TrimSpace(os.Getenv("USRV_TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := strings.TrimSpace(os.Getenv("USRV_TOKEN_CLOCK_SKEW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	return cfg, nil
}
