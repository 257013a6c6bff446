package password

import (
	"strings"
	"testing"
)

func testParams() Params {
	// Small but above the validation floors so tests stay fast.
	return Params{
		MemoryKB:   8 * 1024,
		Iterations: 1,
		Threads:    1,
		SaltLen:    16,
		KeyLen:     32,
	}
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h, err := NewHasher(testParams())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	encoded, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected encoding: %s", encoded)
	}

	ok, err := h.Verify("correct-horse-battery", encoded)
	if err != nil || !ok {
		t.Fatalf("expected verification success, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong-password-here", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("expected verification failure for wrong password")
	}
}

func TestHashProducesUniqueSalts(t *testing.T) {
	h, err := NewHasher(testParams())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	a, err := h.Hash("same-password-twice")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("same-password-twice")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct hashes for identical input")
	}
}

func TestVerifyRejectsMalformedEncodings(t *testing.T) {
	h, err := NewHasher(testParams())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	cases := []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}

	for _, encoded := range cases {
		if _, err := h.Verify("whatever-password", encoded); err == nil {
			t.Fatalf("expected decode error for %q", encoded)
		}
	}
}

func TestNeedsUpgradeDetectsRaisedParams(t *testing.T) {
	weak, err := NewHasher(testParams())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	encoded, err := weak.Hash("upgrade-me-please")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	stronger := testParams()
	stronger.Iterations = 3
	strong, err := NewHasher(stronger)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	upgrade, err := strong.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if !upgrade {
		t.Fatal("expected upgrade to be required")
	}

	upgrade, err = weak.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if upgrade {
		t.Fatal("expected no upgrade for matching params")
	}
}

func TestNewHasherEnforcesFloors(t *testing.T) {
	bad := []Params{
		{MemoryKB: 1024, Iterations: 1, Threads: 1, SaltLen: 16, KeyLen: 32},
		{MemoryKB: 8192, Iterations: 0, Threads: 1, SaltLen: 16, KeyLen: 32},
		{MemoryKB: 8192, Iterations: 1, Threads: 0, SaltLen: 16, KeyLen: 32},
		{MemoryKB: 8192, Iterations: 1, Threads: 1, SaltLen: 8, KeyLen: 32},
		{MemoryKB: 8192, Iterations: 1, Threads: 1, SaltLen: 16, KeyLen: 8},
	}

	for i, p := range bad {
		if _, err := NewHasher(p); err == nil {
			t.Fatalf("case %d: expected rejection", i)
		}
	}
}
