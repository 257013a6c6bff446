package authcore

import (
	"context"
	"errors"

	"authcore/token"
)

// revokeRetries bounds the compare-and-increment loop in revoke. Contention
// on a single account's counter is rare and short-lived.
const revokeRetries = 4

// Refresh rotates a refresh token: the presented token's embedded generation
// must equal the account's current counter, in which case the counter is
// atomically advanced and a new pair is minted against the new generation.
// A token carrying an older generation has already been rotated once;
// presenting it again is treated as theft, the entire lineage is revoked,
// and ErrRefreshReuse is returned.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.tokens.Parse(refreshToken, token.PurposeRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", ErrInvalidRefreshToken, nil)
		return nil, ErrInvalidRefreshToken
	}
	accountID := claims.Subject

	current, err := e.accounts.Generation(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, accountID, ErrInvalidRefreshToken, nil)
			return nil, ErrInvalidRefreshToken
		}
		return nil, storeFailure(err)
	}

	switch {
	case claims.Generation == current:
		swapped, err := e.accounts.CompareAndIncrementGeneration(ctx, accountID, current)
		if err != nil {
			return nil, storeFailure(err)
		}
		if !swapped {
			// Lost the race: a concurrent request consumed this token first.
			return nil, e.failRefreshReuse(ctx, accountID)
		}

		pair, err := e.mintPair(accountID, current+1)
		if err != nil {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, accountID, err, nil)
			return nil, err
		}
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, accountID, nil, nil)
		return pair, nil

	case claims.Generation < current:
		return nil, e.failRefreshReuse(ctx, accountID)

	default:
		// A generation ahead of the stored counter was never issued by us.
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, accountID, ErrInvalidRefreshToken, nil)
		return nil, ErrInvalidRefreshToken
	}
}

// Logout revokes the account's refresh lineage. Outstanding access tokens
// expire on their own; nothing else is or needs to be invalidated.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if err := e.revoke(ctx, accountID); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, accountID, nil, nil)
	return nil
}

// issuePair mints a pair against the account's current generation without
// advancing it; the first refresh after login performs the first rotation.
func (e *Engine) issuePair(ctx context.Context, accountID string) (*TokenPair, error) {
	generation, err := e.accounts.Generation(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, storeFailure(err)
	}
	return e.mintPair(accountID, generation)
}

func (e *Engine) mintPair(accountID string, generation uint64) (*TokenPair, error) {
	access, err := e.tokens.Sign(accountID, token.PurposeAccess, 0, e.config.Token.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := e.tokens.Sign(accountID, token.PurposeRefresh, generation, e.config.Token.RefreshTTL)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPairIssued)
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// failRefreshReuse performs the defensive bump before failing, so the whole
// lineage is dead even though this request is rejected.
func (e *Engine) failRefreshReuse(ctx context.Context, accountID string) error {
	if err := e.revoke(ctx, accountID); err != nil {
		return err
	}

	e.metricInc(MetricRefreshReuseDetected)
	e.emitAudit(ctx, auditEventRefreshReuseDetected, false, accountID, ErrRefreshReuse, nil)
	return ErrRefreshReuse
}

// revoke unconditionally advances the generation counter, invalidating every
// outstanding refresh token for the account.
func (e *Engine) revoke(ctx context.Context, accountID string) error {
	for i := 0; i < revokeRetries; i++ {
		current, err := e.accounts.Generation(ctx, accountID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return err
			}
			return storeFailure(err)
		}

		swapped, err := e.accounts.CompareAndIncrementGeneration(ctx, accountID, current)
		if err != nil {
			return storeFailure(err)
		}
		if swapped {
			return nil
		}
	}
	return errors.New("generation counter contention on revoke")
}
