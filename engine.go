package authcore

import (
	"context"
	"errors"
	"time"

	"authcore/password"
	"authcore/token"
)

// Engine composes the credential validator, two-factor verifier, temporary
// session bridge, and token pair issuer into the login, refresh, logout, and
// step-up flows. Configure through the Builder, then treat as immutable; all
// methods are safe for concurrent use. The engine holds no session state —
// everything lives in the AccountStore or inside the signed tokens
// themselves.
type Engine struct {
	config       Config
	accounts     AccountStore
	tokens       *token.Manager
	passwordHash *password.Hasher
	totp         *totpManager
	audit        *auditDispatcher
	metrics      *Metrics

	// dummyHash keeps the "no such account" path in the same latency class
	// as a real password mismatch.
	dummyHash string
}

// Close flushes the audit dispatcher. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// VerifyAccess parses and verifies an access token, returning the subject
// account id. Access tokens are stateless; revocation happens only through
// the refresh lineage, so no store call is made here.
func (e *Engine) VerifyAccess(ctx context.Context, accessToken string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	_ = ctx

	claims, err := e.tokens.Parse(accessToken, token.PurposeAccess)
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	cause error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) ready() error {
	if e == nil || e.accounts == nil || e.tokens == nil || e.passwordHash == nil || e.totp == nil {
		return ErrEngineNotReady
	}
	return nil
}

// storeFailure maps backend errors that are not taxonomy sentinels onto
// ErrStoreUnavailable so storage detail never leaks to callers.
func storeFailure(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
