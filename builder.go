package authcore

import (
	"errors"
	"strings"

	"authcore/password"
	"authcore/token"
)

// Builder assembles an Engine. A Builder is single-use: Build may be called
// once.
type Builder struct {
	config Config

	accounts  AccountStore
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the full configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccountStore wires the persistence capability. Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithAuditSink sets the destination for audit events. Only consulted when
// auditing is enabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, constructs the codec components, and
// returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}

	hasher, err := password.NewHasher(password.Params{
		MemoryKB:   cfg.Password.Memory,
		Iterations: cfg.Password.Time,
		Threads:    cfg.Password.Parallelism,
		SaltLen:    cfg.Password.SaltLength,
		KeyLen:     cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		SigningMethod: token.SigningMethod(strings.ToLower(cfg.Token.SigningMethod)),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	dummy, err := hasher.Hash("authcore-enumeration-padding")
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		accounts:     b.accounts,
		tokens:       tokens,
		passwordHash: hasher,
		totp:         newTOTPManager(cfg.TOTP),
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
		dummyHash:    dummy,
	}

	b.built = true

	return engine, nil
}
