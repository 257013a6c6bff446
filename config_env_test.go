package authcore

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	want := defaultConfig()
	if cfg.Token.AccessTTL != want.Token.AccessTTL {
		t.Fatalf("access TTL: %v != %v", cfg.Token.AccessTTL, want.Token.AccessTTL)
	}
	if cfg.TOTP.BackupCodeCount != want.TOTP.BackupCodeCount {
		t.Fatalf("backup code count: %d != %d", cfg.TOTP.BackupCodeCount, want.TOTP.BackupCodeCount)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	t.Setenv("AUTHCORE_ACCESS_TTL", "90s")
	t.Setenv("AUTHCORE_REFRESH_TTL", "48h")
	t.Setenv("AUTHCORE_SIGNING_METHOD", "hs256")
	t.Setenv("AUTHCORE_PRIVATE_KEY", base64.StdEncoding.EncodeToString(secret))
	t.Setenv("AUTHCORE_TOKEN_ISSUER", "login.example.com")
	t.Setenv("AUTHCORE_TOTP_DIGITS", "8")
	t.Setenv("AUTHCORE_BACKUP_CODE_COUNT", "12")
	t.Setenv("AUTHCORE_METRICS_ENABLED", "true")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.Token.AccessTTL != 90*time.Second {
		t.Fatalf("access TTL override: %v", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 48*time.Hour {
		t.Fatalf("refresh TTL override: %v", cfg.Token.RefreshTTL)
	}
	if cfg.Token.SigningMethod != "hs256" {
		t.Fatalf("signing method override: %q", cfg.Token.SigningMethod)
	}
	if string(cfg.Token.PrivateKey) != string(secret) {
		t.Fatal("private key override mismatch")
	}
	if cfg.Token.Issuer != "login.example.com" {
		t.Fatalf("issuer override: %q", cfg.Token.Issuer)
	}
	if cfg.TOTP.Digits != 8 {
		t.Fatalf("totp digits override: %d", cfg.TOTP.Digits)
	}
	if cfg.TOTP.BackupCodeCount != 12 {
		t.Fatalf("backup code count override: %d", cfg.TOTP.BackupCodeCount)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("metrics override not applied")
	}

	// Untouched settings keep their defaults.
	if cfg.TOTP.Period != defaultConfig().TOTP.Period {
		t.Fatalf("totp period should stay default: %d", cfg.TOTP.Period)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("overridden config should validate: %v", err)
	}
}

func TestConfigFromEnvBadKeyEncoding(t *testing.T) {
	t.Setenv("AUTHCORE_PRIVATE_KEY", "not-base64!!!")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for malformed key encoding")
	}
}
