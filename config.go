package authcore

import (
	"errors"
	"strings"
	"time"
)

// Config defines every tunable of the engine. Zero values are filled from
// defaultConfig by the Builder; Validate rejects combinations that would
// weaken the protocol invariants.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	TOTP     TOTPConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls signing material and lifetimes for the three token
// purposes. PendingTTL bounds the window between password acceptance and
// two-factor confirmation.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	PendingTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the argon2id cost parameters. UpgradeOnLogin
// re-hashes stored credentials with the current parameters after a
// successful password check.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig controls code verification and enrollment. Skew is the number
// of adjacent time steps tolerated on each side of the current one; each
// submission is checked against that fixed window exactly once.
type TOTPConfig struct {
	Issuer           string
	Digits           int
	Period           int
	Skew             int
	Algorithm        string // "SHA1" (default), "SHA256", "SHA512"
	BackupCodeCount  int
	BackupCodeLength int
	EnrollmentTTL    time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration. Key material must still
// be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     5 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			PendingTTL:    5 * time.Minute,
			SigningMethod: "ed25519",
			Issuer:        "authcore",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		TOTP: TOTPConfig{
			Issuer:           "authcore",
			Digits:           6,
			Period:           30,
			Skew:             1,
			Algorithm:        "SHA1",
			BackupCodeCount:  10,
			BackupCodeLength: 10,
			EnrollmentTTL:    15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate checks cross-field consistency. Key material is validated by the
// token manager during Build.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("token access TTL must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("token refresh TTL must exceed access TTL")
	}
	if c.Token.PendingTTL <= 0 || c.Token.PendingTTL > time.Hour {
		return errors.New("token pending TTL must be within (0, 1h]")
	}
	switch strings.ToLower(c.Token.SigningMethod) {
	case "ed25519", "hs256":
	default:
		return errors.New("token signing method must be ed25519 or hs256")
	}

	if c.TOTP.Digits < 6 || c.TOTP.Digits > 8 {
		return errors.New("totp digits must be between 6 and 8")
	}
	if c.TOTP.Period < 15 || c.TOTP.Period > 120 {
		return errors.New("totp period must be between 15 and 120 seconds")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 2 {
		return errors.New("totp skew must be between 0 and 2 steps")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("totp algorithm must be SHA1, SHA256, or SHA512")
	}
	if c.TOTP.BackupCodeCount < 1 || c.TOTP.BackupCodeCount > 32 {
		return errors.New("backup code count must be between 1 and 32")
	}
	if c.TOTP.BackupCodeLength < 8 || c.TOTP.BackupCodeLength > 32 {
		return errors.New("backup code length must be between 8 and 32")
	}
	if c.TOTP.EnrollmentTTL <= 0 || c.TOTP.EnrollmentTTL > 24*time.Hour {
		return errors.New("enrollment TTL must be within (0, 24h]")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
