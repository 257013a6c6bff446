package authcore

import (
	"context"
	"errors"

	"authcore/token"
)

// Login runs the first step of the session lifecycle: credential validation
// followed by either direct token issuance or the two-factor branch. When the
// account has two-factor enabled the result carries only a pending-2fa
// bridge token; no access is granted until VerifyTwoFactor succeeds.
func (e *Engine) Login(ctx context.Context, identifier, plaintext string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	account, err := e.validateCredentials(ctx, identifier, plaintext)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
				return map[string]string{
					"identifier": identifier,
				}
			})
		}
		return nil, err
	}

	if account.TwoFactorEnabled {
		pending, err := e.tokens.Sign(account.ID, token.PurposePending2FA, 0, e.config.Token.PendingTTL)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricTwoFactorRequired)
		e.emitAudit(ctx, auditEventTwoFactorRequired, true, account.ID, nil, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
			}
		})
		return &LoginResult{
			TwoFactorRequired: true,
			PendingToken:      pending,
		}, nil
	}

	pair, err := e.issuePair(ctx, account.ID)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, nil, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
		}
	})
	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// StepUpVerify re-checks the password of an already-authenticated account to
// gate a sensitive action. It issues no tokens and changes no session state.
func (e *Engine) StepUpVerify(ctx context.Context, accountID, plaintext string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}

	account, err := e.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricStepUpFailure)
			e.emitAudit(ctx, auditEventStepUpFailure, false, accountID, ErrInvalidCredentials, nil)
			return false, ErrInvalidCredentials
		}
		return false, storeFailure(err)
	}

	ok, err := e.passwordHash.Verify(plaintext, account.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricStepUpFailure)
		e.emitAudit(ctx, auditEventStepUpFailure, false, account.ID, nil, nil)
		return false, nil
	}

	e.metricInc(MetricStepUpSuccess)
	e.emitAudit(ctx, auditEventStepUpSuccess, true, account.ID, nil, nil)
	return true, nil
}

// validateCredentials is read-only. Both "no such account" and "wrong
// password" return ErrInvalidCredentials, and the missing-account path burns
// a verification against a throwaway hash so the two failures stay in the
// same latency class.
func (e *Engine) validateCredentials(ctx context.Context, identifier, plaintext string) (Account, error) {
	account, err := e.accounts.FindAccountByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_, _ = e.passwordHash.Verify(plaintext, e.dummyHash)
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, storeFailure(err)
	}

	ok, err := e.passwordHash.Verify(plaintext, account.PasswordHash)
	if err != nil || !ok {
		return Account{}, ErrInvalidCredentials
	}

	if e.config.Password.UpgradeOnLogin {
		e.maybeUpgradeHash(ctx, account, plaintext)
	}

	return account, nil
}

// maybeUpgradeHash re-hashes with the current argon2 parameters after a
// successful check. Best effort: failure never blocks the login.
func (e *Engine) maybeUpgradeHash(ctx context.Context, account Account, plaintext string) {
	needed, err := e.passwordHash.NeedsUpgrade(account.PasswordHash)
	if err != nil || !needed {
		return
	}
	upgraded, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		return
	}
	_ = e.accounts.UpdatePasswordHash(ctx, account.ID, upgraded)
}
