package authcore

import (
	"context"
	"errors"
	"time"

	"authcore/token"
)

// VerifyTwoFactor completes a two-step login. It redeems the pending-2fa
// bridge token, checks the submitted code (TOTP first, then the single-use
// backup codes), and only then mints the access/refresh pair. A failed code
// leaves the pending token untouched so the caller may retry until it
// expires; its expiry is never extended.
func (e *Engine) VerifyTwoFactor(ctx context.Context, pendingToken, code string) (*TokenPair, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.tokens.Parse(pendingToken, token.PurposePending2FA)
	if err != nil {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, "", ErrInvalidToken, func() map[string]string {
			return map[string]string{
				"reason": "pending_token_rejected",
			}
		})
		return nil, ErrInvalidToken
	}
	accountID := claims.Subject

	account, err := e.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricTwoFactorFailure)
			e.emitAudit(ctx, auditEventTwoFactorFailure, false, accountID, ErrInvalidToken, nil)
			return nil, ErrInvalidToken
		}
		return nil, storeFailure(err)
	}

	state, err := e.accounts.GetTwoFactorState(ctx, account.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if state == nil || !state.Enabled || len(state.Secret) == 0 {
		// The bridge token outlived the enrollment it was minted for.
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, account.ID, ErrInvalidToken, func() map[string]string {
			return map[string]string{
				"reason": "two_factor_disabled",
			}
		})
		return nil, ErrInvalidToken
	}

	matched, usedBackup, err := e.checkSecondFactor(ctx, account.ID, state.Secret, code)
	if err != nil {
		return nil, err
	}
	if !matched {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, account.ID, ErrInvalidCode, nil)
		return nil, ErrInvalidCode
	}
	if usedBackup {
		e.metricInc(MetricBackupCodeUsed)
		e.emitAudit(ctx, auditEventBackupCodeUsed, true, account.ID, nil, nil)
	}

	pair, err := e.issuePair(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricTwoFactorSuccess)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventTwoFactorSuccess, true, account.ID, nil, nil)
	return pair, nil
}

// checkSecondFactor tries the TOTP window first, then attempts to consume a
// backup code. Backup consumption is atomic remove-if-present at the store,
// so a code can never be spent twice even under concurrent submissions.
func (e *Engine) checkSecondFactor(ctx context.Context, accountID string, secret []byte, code string) (matched, usedBackup bool, err error) {
	ok, err := e.totp.VerifyCode(secret, code, time.Now())
	if err != nil {
		return false, false, err
	}
	if ok {
		return true, false, nil
	}

	canonical := canonicalizeBackupCode(code)
	if canonical == "" {
		return false, false, nil
	}
	consumed, err := e.accounts.ConsumeBackupCode(ctx, accountID, backupCodeHash(accountID, canonical))
	if err != nil {
		return false, false, storeFailure(err)
	}
	return consumed, consumed, nil
}
