package authcore

import (
	"strings"
	"testing"
)

func TestNewBackupCodeAlphabetAndLength(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := newBackupCode(10)
		if err != nil {
			t.Fatalf("newBackupCode failed: %v", err)
		}
		if len(code) != 10 {
			t.Fatalf("length %d: %q", len(code), code)
		}
		for _, r := range code {
			if !strings.ContainsRune(backupCodeAlphabet, r) {
				t.Fatalf("character %q outside alphabet in %q", r, code)
			}
		}
	}
}

func TestFormatAndCanonicalizeRoundTrip(t *testing.T) {
	cases := []struct {
		in        string
		formatted string
	}{
		{"ABCDE23456", "ABCDE-23456"},
		{"ABCDEFGH", "ABCD-EFGH"},
		{"SHORT", "SHORT"},
	}
	for _, tc := range cases {
		if got := formatBackupCode(tc.in); got != tc.formatted {
			t.Fatalf("formatBackupCode(%q) = %q, want %q", tc.in, got, tc.formatted)
		}
		if got := canonicalizeBackupCode(tc.formatted); got != tc.in {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.formatted, got, tc.in)
		}
	}
}

func TestCanonicalizeNormalizesUserInput(t *testing.T) {
	for _, in := range []string{" abcde-23456 ", "ABCDE 23456", "abcde23456"} {
		if got := canonicalizeBackupCode(in); got != "ABCDE23456" {
			t.Fatalf("canonicalize(%q) = %q", in, got)
		}
	}
}

// Identical codes for different accounts must hash differently.
func TestBackupCodeHashAccountBinding(t *testing.T) {
	a := backupCodeHash("acct-1", "ABCDE23456")
	b := backupCodeHash("acct-2", "ABCDE23456")
	if a == b {
		t.Fatal("hash must bind to the account")
	}
	if a != backupCodeHash("acct-1", "ABCDE23456") {
		t.Fatal("hash must be deterministic")
	}
}
