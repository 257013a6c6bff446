package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	minMemoryKB   uint32 = 8 * 1024
	minIterations uint32 = 1
	minThreads    uint8  = 1
	minSaltLen    uint32 = 16
	minKeyLen     uint32 = 16
)

// Params are the argon2id cost parameters applied to new hashes.
type Params struct {
	MemoryKB   uint32
	Iterations uint32
	Threads    uint8
	SaltLen    uint32
	KeyLen     uint32
}

// Hasher produces and checks argon2id hashes with fixed Params. Safe for
// concurrent use.
type Hasher struct {
	params Params
}

// NewHasher validates p against conservative floors and returns a Hasher.
func NewHasher(p Params) (*Hasher, error) {
	switch {
	case p.MemoryKB < minMemoryKB:
		return nil, errors.New("argon2 memory must be >= 8192 KB")
	case p.Iterations < minIterations:
		return nil, errors.New("argon2 iterations must be >= 1")
	case p.Threads < minThreads:
		return nil, errors.New("argon2 threads must be >= 1")
	case p.SaltLen < minSaltLen:
		return nil, errors.New("argon2 salt length must be >= 16")
	case p.KeyLen < minKeyLen:
		return nil, errors.New("argon2 key length must be >= 16")
	}
	return &Hasher{params: p}, nil
}

// Hash derives a salted argon2id hash and encodes it as a PHC string.
// Password bytes are used exactly as provided, without normalization.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		salt,
		h.params.Iterations,
		h.params.MemoryKB,
		h.params.Threads,
		h.params.KeyLen,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.MemoryKB,
		h.params.Iterations,
		h.params.Threads,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters embedded in encoded and
// compares in constant time.
func (h *Hasher) Verify(plaintext, encoded string) (bool, error) {
	stored, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(plaintext),
		stored.salt,
		stored.iterations,
		stored.memoryKB,
		stored.threads,
		uint32(len(stored.key)),
	)

	return subtle.ConstantTimeCompare(computed, stored.key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with parameters weaker
// than the Hasher's current Params.
func (h *Hasher) NeedsUpgrade(encoded string) (bool, error) {
	stored, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	if h.params.MemoryKB > stored.memoryKB {
		return true, nil
	}
	if h.params.Iterations > stored.iterations {
		return true, nil
	}
	if h.params.Threads > stored.threads {
		return true, nil
	}
	if int(h.params.KeyLen) != len(stored.key) {
		return true, nil
	}
	return false, nil
}

type storedHash struct {
	memoryKB   uint32
	iterations uint32
	threads    uint8
	salt       []byte
	key        []byte
}

func decodePHC(encoded string) (*storedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("missing argon2 version")
	}
	v, err := strconv.Atoi(version)
	if err != nil || v != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	out := &storedHash{}
	if err := decodeParams(parts[3], out); err != nil {
		return nil, err
	}

	if out.salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(out.salt) < int(minSaltLen) {
		return nil, errors.New("invalid salt length")
	}
	if out.key, err = base64.StdEncoding.DecodeString(parts[5]); err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(out.key) == 0 {
		return nil, errors.New("invalid hash length")
	}

	return out, nil
}

func decodeParams(part string, out *storedHash) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return errors.New("invalid parameter format")
	}

	var haveM, haveT, haveP bool
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return errors.New("invalid parameter entry")
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return errors.New("invalid memory parameter")
			}
			out.memoryKB = uint32(n)
			haveM = true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minIterations) {
				return errors.New("invalid time parameter")
			}
			out.iterations = uint32(n)
			haveT = true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minThreads) {
				return errors.New("invalid parallelism parameter")
			}
			out.threads = uint8(n)
			haveP = true
		default:
			return errors.New("unsupported parameter")
		}
	}

	if !haveM || !haveT || !haveP {
		return errors.New("missing parameters")
	}
	return nil
}
