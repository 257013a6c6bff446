package authcore

import "errors"

var (
	// ErrInvalidCredentials is returned for both "no such account" and "wrong
	// password" so login failures cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers a malformed, expired, or wrong-purpose access or
	// pending-2fa token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidRefreshToken covers a malformed or expired refresh token, or
	// one whose account no longer exists.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrRefreshReuse signals replay of an already-rotated refresh token. The
	// entire lineage is revoked before this error is returned.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrInvalidCode is returned when neither the TOTP code nor a backup code
	// matches.
	ErrInvalidCode = errors.New("invalid two-factor code")
	// ErrTwoFactorNotEnrolled is returned by two-factor management operations
	// on accounts without an active enrollment.
	ErrTwoFactorNotEnrolled = errors.New("two-factor not enrolled")
	// ErrEnrollmentNotFound is returned by ConfirmTwoFactorEnrollment when no
	// pending enrollment exists or it has expired.
	ErrEnrollmentNotFound = errors.New("pending enrollment not found")
	// ErrAccountNotFound is the sentinel AccountStore implementations return
	// for missing accounts. Login maps it to ErrInvalidCredentials before it
	// reaches callers.
	ErrAccountNotFound = errors.New("account not found")
	// ErrStoreUnavailable is the sentinel AccountStore implementations wrap
	// around backend failures.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrEngineNotReady is returned when the engine is used before Build
	// wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
