package authcore

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envOverrides only carries the settings that make sense to supply through
// the process environment. Key material arrives base64-encoded. Unset
// variables leave the default untouched.
type envOverrides struct {
	AccessTTL     *time.Duration `env:"AUTHCORE_ACCESS_TTL"`
	RefreshTTL    *time.Duration `env:"AUTHCORE_REFRESH_TTL"`
	PendingTTL    *time.Duration `env:"AUTHCORE_PENDING_TTL"`
	SigningMethod *string        `env:"AUTHCORE_SIGNING_METHOD"`
	PrivateKeyB64 *string        `env:"AUTHCORE_PRIVATE_KEY"`
	PublicKeyB64  *string        `env:"AUTHCORE_PUBLIC_KEY"`
	TokenIssuer   *string        `env:"AUTHCORE_TOKEN_ISSUER"`

	TOTPIssuer      *string        `env:"AUTHCORE_TOTP_ISSUER"`
	TOTPDigits      *int           `env:"AUTHCORE_TOTP_DIGITS"`
	TOTPPeriod      *int           `env:"AUTHCORE_TOTP_PERIOD"`
	TOTPSkew        *int           `env:"AUTHCORE_TOTP_SKEW"`
	BackupCodeCount *int           `env:"AUTHCORE_BACKUP_CODE_COUNT"`
	EnrollmentTTL   *time.Duration `env:"AUTHCORE_ENROLLMENT_TTL"`

	AuditEnabled   *bool `env:"AUTHCORE_AUDIT_ENABLED"`
	MetricsEnabled *bool `env:"AUTHCORE_METRICS_ENABLED"`
}

// ConfigFromEnv returns the default configuration with AUTHCORE_* environment
// overrides applied. The result still goes through Validate at Build time.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if overrides.AccessTTL != nil {
		cfg.Token.AccessTTL = *overrides.AccessTTL
	}
	if overrides.RefreshTTL != nil {
		cfg.Token.RefreshTTL = *overrides.RefreshTTL
	}
	if overrides.PendingTTL != nil {
		cfg.Token.PendingTTL = *overrides.PendingTTL
	}
	if overrides.SigningMethod != nil {
		cfg.Token.SigningMethod = *overrides.SigningMethod
	}
	if overrides.PrivateKeyB64 != nil {
		key, err := base64.StdEncoding.DecodeString(*overrides.PrivateKeyB64)
		if err != nil {
			return Config{}, fmt.Errorf("decode AUTHCORE_PRIVATE_KEY: %w", err)
		}
		cfg.Token.PrivateKey = key
	}
	if overrides.PublicKeyB64 != nil {
		key, err := base64.StdEncoding.DecodeString(*overrides.PublicKeyB64)
		if err != nil {
			return Config{}, fmt.Errorf("decode AUTHCORE_PUBLIC_KEY: %w", err)
		}
		cfg.Token.PublicKey = key
	}
	if overrides.TokenIssuer != nil {
		cfg.Token.Issuer = *overrides.TokenIssuer
	}

	if overrides.TOTPIssuer != nil {
		cfg.TOTP.Issuer = *overrides.TOTPIssuer
	}
	if overrides.TOTPDigits != nil {
		cfg.TOTP.Digits = *overrides.TOTPDigits
	}
	if overrides.TOTPPeriod != nil {
		cfg.TOTP.Period = *overrides.TOTPPeriod
	}
	if overrides.TOTPSkew != nil {
		cfg.TOTP.Skew = *overrides.TOTPSkew
	}
	if overrides.BackupCodeCount != nil {
		cfg.TOTP.BackupCodeCount = *overrides.BackupCodeCount
	}
	if overrides.EnrollmentTTL != nil {
		cfg.TOTP.EnrollmentTTL = *overrides.EnrollmentTTL
	}

	if overrides.AuditEnabled != nil {
		cfg.Audit.Enabled = *overrides.AuditEnabled
	}
	if overrides.MetricsEnabled != nil {
		cfg.Metrics.Enabled = *overrides.MetricsEnabled
	}

	return cfg, nil
}
