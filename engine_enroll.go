package authcore

import (
	"context"
	"errors"
	"time"
)

// BeginTwoFactorEnrollment generates a fresh TOTP secret and a batch of
// single-use backup codes for the account, parks them in a pending record,
// and returns the provisioning material. Nothing on the account changes
// until ConfirmTwoFactorEnrollment proves the authenticator was configured;
// an abandoned enrollment simply expires.
//
// Backup codes are returned in plaintext exactly once, here. Only their
// hashes survive confirmation.
func (e *Engine) BeginTwoFactorEnrollment(ctx context.Context, accountID string) (*TwoFactorEnrollment, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	account, err := e.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, storeFailure(err)
	}

	secret, secretB32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, e.config.TOTP.BackupCodeCount)
	hashes := make([][32]byte, 0, e.config.TOTP.BackupCodeCount)
	for i := 0; i < e.config.TOTP.BackupCodeCount; i++ {
		code, err := newBackupCode(e.config.TOTP.BackupCodeLength)
		if err != nil {
			return nil, err
		}
		codes = append(codes, formatBackupCode(code))
		hashes = append(hashes, backupCodeHash(account.ID, code))
	}

	pending := &PendingEnrollment{
		Secret:     secret,
		CodeHashes: hashes,
		ExpiresAt:  time.Now().Add(e.config.TOTP.EnrollmentTTL).Unix(),
	}
	if err := e.accounts.SavePendingEnrollment(ctx, account.ID, pending, e.config.TOTP.EnrollmentTTL); err != nil {
		return nil, storeFailure(err)
	}

	e.metricInc(MetricEnrollmentStarted)
	e.emitAudit(ctx, auditEventEnrollmentStarted, true, account.ID, nil, nil)

	return &TwoFactorEnrollment{
		SecretBase32: secretB32,
		ProvisionURI: e.totp.ProvisionURI(secretB32, account.Identifier),
		BackupCodes:  codes,
	}, nil
}

// ConfirmTwoFactorEnrollment activates the pending enrollment once the
// caller proves possession of the secret with a live TOTP code. On success
// the account's generation counter is bumped so refresh tokens issued
// before two-factor was in force die immediately.
func (e *Engine) ConfirmTwoFactorEnrollment(ctx context.Context, accountID, code string) error {
	if err := e.ready(); err != nil {
		return err
	}

	pending, err := e.accounts.GetPendingEnrollment(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return ErrEnrollmentNotFound
		}
		return storeFailure(err)
	}
	if pending.ExpiresAt > 0 && time.Now().Unix() >= pending.ExpiresAt {
		return ErrEnrollmentNotFound
	}

	ok, err := e.totp.VerifyCode(pending.Secret, code, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		e.emitAudit(ctx, auditEventEnrollmentFailed, false, accountID, ErrInvalidCode, nil)
		return ErrInvalidCode
	}

	if err := e.accounts.SetTwoFactorState(ctx, accountID, pending.Secret, pending.CodeHashes, true); err != nil {
		return storeFailure(err)
	}
	if err := e.accounts.DeletePendingEnrollment(ctx, accountID); err != nil {
		return storeFailure(err)
	}
	if err := e.revoke(ctx, accountID); err != nil {
		return err
	}

	e.metricInc(MetricEnrollmentConfirmed)
	e.emitAudit(ctx, auditEventEnrollmentConfirmed, true, accountID, nil, nil)
	return nil
}

// DisableTwoFactor clears the account's TOTP secret and backup codes and
// bumps the generation counter. Callers are expected to gate this behind
// StepUpVerify or an equivalent fresh proof of identity.
func (e *Engine) DisableTwoFactor(ctx context.Context, accountID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if err := e.accounts.SetTwoFactorState(ctx, accountID, nil, nil, false); err != nil {
		return storeFailure(err)
	}
	if err := e.accounts.DeletePendingEnrollment(ctx, accountID); err != nil && !errors.Is(err, ErrEnrollmentNotFound) {
		return storeFailure(err)
	}
	if err := e.revoke(ctx, accountID); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventTwoFactorDisabled, true, accountID, nil, nil)
	return nil
}

// RegenerateBackupCodes replaces the account's backup codes with a fresh
// batch, invalidating any unused ones. The caller must present a live TOTP
// code; a backup code cannot authorize minting its own successors.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, accountID, totpCode string) ([]string, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	state, err := e.accounts.GetTwoFactorState(ctx, accountID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if state == nil || !state.Enabled || len(state.Secret) == 0 {
		return nil, ErrTwoFactorNotEnrolled
	}

	ok, err := e.totp.VerifyCode(state.Secret, totpCode, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	codes := make([]string, 0, e.config.TOTP.BackupCodeCount)
	hashes := make([][32]byte, 0, e.config.TOTP.BackupCodeCount)
	for i := 0; i < e.config.TOTP.BackupCodeCount; i++ {
		code, err := newBackupCode(e.config.TOTP.BackupCodeLength)
		if err != nil {
			return nil, err
		}
		codes = append(codes, formatBackupCode(code))
		hashes = append(hashes, backupCodeHash(accountID, code))
	}

	if err := e.accounts.SetTwoFactorState(ctx, accountID, state.Secret, hashes, true); err != nil {
		return nil, storeFailure(err)
	}

	e.emitAudit(ctx, auditEventBackupCodesRegenerate, true, accountID, nil, nil)
	return codes, nil
}
