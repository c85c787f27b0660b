package authapi

import "testing"

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("USRV_TRUST_PROXY", "")
	t.Setenv("USRV_HTTP_MAX_BODY_BYTES", "")

	cfg := LoadConfigFromEnv()
	if cfg.TrustProxy {
		t.Fatalf("TrustProxy must default to false")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("MaxBodyBytes=%d want %d", cfg.MaxBodyBytes, 1<<20)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("USRV_TRUST_PROXY", "true")
	t.Setenv("USRV_HTTP_MAX_BODY_BYTES", "2048")

	cfg := LoadConfigFromEnv()
	if !cfg.TrustProxy {
		t.Fatalf("TrustProxy override ignored")
	}
	if cfg.MaxBodyBytes != 2048 {
		t.Fatalf("MaxBodyBytes=%d want 2048", cfg.MaxBodyBytes)
	}
}

func TestLoadConfigFromEnv_InvalidFallsBack(t *testing.T) {
	t.Setenv("USRV_TRUST_PROXY", "maybe")
	t.Setenv("USRV_HTTP_MAX_BODY_BYTES", "-5")

	cfg := LoadConfigFromEnv()
	if cfg.TrustProxy {
		t.Fatalf("invalid bool must fall back to default")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("invalid size must fall back to default, got %d", cfg.MaxBodyBytes)
	}
}
