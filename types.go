package authcore

import (
	"context"
	"time"
)

// Account is the identity record this core reads and mutates through the
// injected AccountStore. The generation counter is monotonic; every refresh
// token embeds the counter value current at issue time and is valid only
// while the two still match.
type Account struct {
	ID               string
	Identifier       string
	PasswordHash     string
	TwoFactorEnabled bool
	Generation       uint64
}

// TwoFactorState carries an account's enrolled TOTP secret. Backup codes are
// not part of the state read path; they live in the store and are consumed
// one at a time through ConsumeBackupCode.
type TwoFactorState struct {
	Secret  []byte
	Enabled bool
}

// PendingEnrollment holds a generated secret and backup-code hashes that have
// not yet been confirmed with a valid code. It is stored separately from the
// active state so a failed confirmation never activates anything.
type PendingEnrollment struct {
	Secret     []byte
	CodeHashes [][32]byte
	ExpiresAt  int64
}

// AccountStore is the persistence capability callers must implement to wire
// the engine to their account database. ConsumeBackupCode must be atomic
// remove-if-present, and CompareAndIncrementGeneration must perform its
// read-compare-increment as a single unit; everything else is plain reads
// and writes.
type AccountStore interface {
	FindAccountByIdentifier(ctx context.Context, identifier string) (Account, error)
	FindAccountByID(ctx context.Context, id string) (Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	GetTwoFactorState(ctx context.Context, id string) (*TwoFactorState, error)
	SetTwoFactorState(ctx context.Context, id string, secret []byte, codeHashes [][32]byte, enabled bool) error
	ConsumeBackupCode(ctx context.Context, id string, hash [32]byte) (bool, error)

	SavePendingEnrollment(ctx context.Context, id string, pending *PendingEnrollment, ttl time.Duration) error
	GetPendingEnrollment(ctx context.Context, id string) (*PendingEnrollment, error)
	DeletePendingEnrollment(ctx context.Context, id string) error

	Generation(ctx context.Context, id string) (uint64, error)
	CompareAndIncrementGeneration(ctx context.Context, id string, expected uint64) (bool, error)
}

// TokenPair is an access/refresh credential pair representing an
// authenticated session lineage.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by Engine.Login. When TwoFactorRequired is set,
// PendingToken carries the temporary bridge credential and no access is
// granted; otherwise the token pair is populated.
type LoginResult struct {
	TwoFactorRequired bool
	PendingToken      string

	AccessToken  string
	RefreshToken string
}

// TwoFactorEnrollment is returned by BeginTwoFactorEnrollment. BackupCodes
// holds the plaintext single-use codes; this is the only time they are ever
// visible.
type TwoFactorEnrollment struct {
	SecretBase32 string
	ProvisionURI string
	BackupCodes  []string
}
