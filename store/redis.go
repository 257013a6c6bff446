package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"authcore"
)

const (
	twoFactorRecordVersion1  = 1
	enrollmentRecordVersion1 = 1

	casRetries = 4
)

// ErrBackend wraps Redis transport failures so callers can distinguish
// infrastructure trouble from the not-found sentinels.
var ErrBackend = errors.New("account store backend unavailable")

// RedisAccounts implements authcore.AccountStore on a Redis backend.
type RedisAccounts struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisAccounts(redisClient redis.UniversalClient, prefix string) *RedisAccounts {
	if prefix == "" {
		prefix = "ac"
	}
	return &RedisAccounts{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RedisAccounts) accountKey(id string) string    { return s.prefix + ":acct:" + id }
func (s *RedisAccounts) identifierKey(v string) string  { return s.prefix + ":ident:" + v }
func (s *RedisAccounts) twoFactorKey(id string) string  { return s.prefix + ":2fa:" + id }
func (s *RedisAccounts) backupKey(id string) string     { return s.prefix + ":bc:" + id }
func (s *RedisAccounts) enrollmentKey(id string) string { return s.prefix + ":enroll:" + id }

// CreateAccount registers an account and its login index. The generation
// counter starts at zero.
func (s *RedisAccounts) CreateAccount(ctx context.Context, account authcore.Account) error {
	if account.ID == "" || account.Identifier == "" {
		return errors.New("account id and identifier are required")
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.accountKey(account.ID),
			"identifier", account.Identifier,
			"phash", account.PasswordHash,
			"tfa", boolField(account.TwoFactorEnabled),
			"gen", strconv.FormatUint(account.Generation, 10),
		)
		pipe.Set(ctx, s.identifierKey(account.Identifier), account.ID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisAccounts) FindAccountByIdentifier(ctx context.Context, identifier string) (authcore.Account, error) {
	id, err := s.redis.Get(ctx, s.identifierKey(identifier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return authcore.Account{}, authcore.ErrAccountNotFound
		}
		return authcore.Account{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return s.FindAccountByID(ctx, id)
}

func (s *RedisAccounts) FindAccountByID(ctx context.Context, id string) (authcore.Account, error) {
	fields, err := s.redis.HGetAll(ctx, s.accountKey(id)).Result()
	if err != nil {
		return authcore.Account{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if len(fields) == 0 {
		return authcore.Account{}, authcore.ErrAccountNotFound
	}
	gen, err := strconv.ParseUint(fields["gen"], 10, 64)
	if err != nil {
		return authcore.Account{}, fmt.Errorf("%w: corrupt generation for %s", ErrBackend, id)
	}
	return authcore.Account{
		ID:               id,
		Identifier:       fields["identifier"],
		PasswordHash:     fields["phash"],
		TwoFactorEnabled: fields["tfa"] == "1",
		Generation:       gen,
	}, nil
}

func (s *RedisAccounts) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	exists, err := s.redis.Exists(ctx, s.accountKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if exists == 0 {
		return authcore.ErrAccountNotFound
	}
	if err := s.redis.HSet(ctx, s.accountKey(id), "phash", hash).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisAccounts) GetTwoFactorState(ctx context.Context, id string) (*authcore.TwoFactorState, error) {
	data, err := s.redis.Get(ctx, s.twoFactorKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &authcore.TwoFactorState{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	secret, err := decodeTwoFactorRecord(data)
	if err != nil {
		return nil, err
	}
	return &authcore.TwoFactorState{Secret: secret, Enabled: true}, nil
}

// SetTwoFactorState replaces the account's second factor in one transaction:
// secret, backup-code set, and the tfa flag on the account hash all move
// together. A nil secret with enabled=false tears everything down.
func (s *RedisAccounts) SetTwoFactorState(
	ctx context.Context,
	id string,
	secret []byte,
	codeHashes [][32]byte,
	enabled bool,
) error {
	exists, err := s.redis.Exists(ctx, s.accountKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if exists == 0 {
		return authcore.ErrAccountNotFound
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if enabled && len(secret) > 0 {
			pipe.Set(ctx, s.twoFactorKey(id), encodeTwoFactorRecord(secret), 0)
			pipe.HSet(ctx, s.accountKey(id), "tfa", "1")
		} else {
			pipe.Del(ctx, s.twoFactorKey(id))
			pipe.HSet(ctx, s.accountKey(id), "tfa", "0")
		}
		pipe.Del(ctx, s.backupKey(id))
		if len(codeHashes) > 0 {
			members := make([]interface{}, 0, len(codeHashes))
			for _, h := range codeHashes {
				members = append(members, hex.EncodeToString(h[:]))
			}
			pipe.SAdd(ctx, s.backupKey(id), members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// ConsumeBackupCode removes the hash from the account's set. SREM is atomic,
// so concurrent submissions of the same code yield exactly one success.
func (s *RedisAccounts) ConsumeBackupCode(ctx context.Context, id string, hash [32]byte) (bool, error) {
	n, err := s.redis.SRem(ctx, s.backupKey(id), hex.EncodeToString(hash[:])).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

func (s *RedisAccounts) SavePendingEnrollment(
	ctx context.Context,
	id string,
	pending *authcore.PendingEnrollment,
	ttl time.Duration,
) error {
	encoded, err := encodePendingEnrollment(pending)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.enrollmentKey(id), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisAccounts) GetPendingEnrollment(ctx context.Context, id string) (*authcore.PendingEnrollment, error) {
	data, err := s.redis.Get(ctx, s.enrollmentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	pending, err := decodePendingEnrollment(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() >= pending.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.enrollmentKey(id)).Result()
		return nil, authcore.ErrEnrollmentNotFound
	}
	return pending, nil
}

func (s *RedisAccounts) DeletePendingEnrollment(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.enrollmentKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisAccounts) Generation(ctx context.Context, id string) (uint64, error) {
	val, err := s.redis.HGet(ctx, s.accountKey(id), "gen").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, authcore.ErrAccountNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	gen, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt generation for %s", ErrBackend, id)
	}
	return gen, nil
}

// CompareAndIncrementGeneration advances the counter only when it still
// holds expected. Runs under WATCH so a concurrent writer forces a clean
// retry instead of a lost update; after casRetries interference rounds it
// reports no swap.
func (s *RedisAccounts) CompareAndIncrementGeneration(ctx context.Context, id string, expected uint64) (bool, error) {
	key := s.accountKey(id)
	var errMismatch = errors.New("generation mismatch")

	for i := 0; i < casRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			val, err := tx.HGet(ctx, key, "gen").Result()
			if err != nil {
				return err
			}
			current, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt generation for %s", id)
			}
			if current != expected {
				return errMismatch
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, "gen", strconv.FormatUint(expected+1, 10))
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, errMismatch) {
			return false, nil
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, authcore.ErrAccountNotFound
			}
			return false, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return true, nil
	}
	return false, nil
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func encodeTwoFactorRecord(secret []byte) []byte {
	out := make([]byte, 0, 1+len(secret))
	out = append(out, twoFactorRecordVersion1)
	out = append(out, secret...)
	return out
}

func decodeTwoFactorRecord(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != twoFactorRecordVersion1 {
		return nil, errors.New("invalid two-factor record")
	}
	secret := make([]byte, len(data)-1)
	copy(secret, data[1:])
	return secret, nil
}

func encodePendingEnrollment(pending *authcore.PendingEnrollment) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(enrollmentRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, pending.ExpiresAt); err != nil {
		return nil, err
	}
	if len(pending.Secret) > 65535 {
		return nil, errors.New("enrollment secret length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(pending.Secret))); err != nil {
		return nil, err
	}
	buf.Write(pending.Secret)
	if len(pending.CodeHashes) > 65535 {
		return nil, errors.New("enrollment code count exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(pending.CodeHashes))); err != nil {
		return nil, err
	}
	for _, h := range pending.CodeHashes {
		buf.Write(h[:])
	}
	return buf.Bytes(), nil
}

func decodePendingEnrollment(data []byte) (*authcore.PendingEnrollment, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != enrollmentRecordVersion1 {
		return nil, errors.New("invalid enrollment record version")
	}

	pending := &authcore.PendingEnrollment{}
	if err := binary.Read(reader, binary.BigEndian, &pending.ExpiresAt); err != nil {
		return nil, err
	}

	var secretLen uint16
	if err := binary.Read(reader, binary.BigEndian, &secretLen); err != nil {
		return nil, err
	}
	pending.Secret = make([]byte, secretLen)
	if _, err := io.ReadFull(reader, pending.Secret); err != nil {
		return nil, err
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	pending.CodeHashes = make([][32]byte, count)
	for i := range pending.CodeHashes {
		if _, err := io.ReadFull(reader, pending.CodeHashes[i][:]); err != nil {
			return nil, err
		}
	}
	return pending, nil
}
