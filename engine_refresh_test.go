package authcore

import (
	"context"
	"errors"
	"testing"
)

func loginPair(t *testing.T, engine *Engine, identifier, pass string) *TokenPair {
	t.Helper()

	result, err := engine.Login(context.Background(), identifier, pass)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.TwoFactorRequired {
		t.Fatal("unexpected two-factor branch")
	}
	return &TokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}
}

func TestRefreshRotates(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)
	seedTestAccount(t, store, "acct-1", "alice@example.com", "correct-horse")

	pair := loginPair(t, engine, "alice@example.com", "correct-horse")

	next, err := engine.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if next.AccessToken == "" || next.RefreshToken == "" {
		t.Fatal("expected a fresh pair")
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	gen, _ := store.Generation(context.Background(), "acct-1")
	if gen != 1 {
		t.Fatalf("generation should advance to 1, got %d", gen)
	}

	// The new token chains into the next rotation.
	if _, err := engine.Refresh(context.Background(), next.RefreshToken); err != nil {
		t.Fatalf("second rotation failed: %v", err)
	}
}

func TestRefreshReuseRevokesLineage(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)
	seedTestAccount(t, store, "acct-1", "alice@example.com", "correct-horse")

	pair := loginPair(t, engine, "alice@example.com", "correct-horse")

	next, err := engine.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// Replaying the consumed token is treated as theft.
	if _, err := engine.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricRefreshReuseDetected] != 1 {
		t.Fatal("reuse counter not incremented")
	}

	// The defensive bump also kills the legitimately derived token.
	if _, err := engine.Refresh(context.Background(), next.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("derived token should be dead after reuse, got %v", err)
	}
}

func TestRefreshGarbageToken(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)

	if _, err := engine.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)
	seedTestAccount(t, store, "acct-1", "alice@example.com", "correct-horse")

	pair := loginPair(t, engine, "alice@example.com", "correct-horse")

	if _, err := engine.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("access token must not rotate, got %v", err)
	}
}

func TestRefreshFutureGenerationRejected(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)
	account := seedTestAccount(t, store, "acct-1", "alice@example.com", "correct-horse")

	// Token minted while the counter was higher than it is now (e.g. a
	// restored backup). Never issued against the current state.
	account.Generation = 5
	store.put(account)
	pair := loginPair(t, engine, "alice@example.com", "correct-horse")
	account.Generation = 2
	store.put(account)

	if _, err := engine.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("future generation must be rejected, got %v", err)
	}
	if gen, _ := store.Generation(context.Background(), "acct-1"); gen != 2 {
		t.Fatalf("counter must not move on future-generation rejection, got %d", gen)
	}
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)
	seedTestAccount(t, store, "acct-1", "alice@example.com", "correct-horse")

	pair := loginPair(t, engine, "alice@example.com", "correct-horse")

	if err := engine.Logout(context.Background(), "acct-1"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := engine.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("refresh after logout should fail as stale, got %v", err)
	}

	// Access tokens remain valid until they expire on their own.
	if _, err := engine.VerifyAccess(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("access token should survive logout until expiry: %v", err)
	}
}

func TestLogoutUnknownAccount(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)

	if err := engine.Logout(context.Background(), "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRefreshUnknownAccount(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, testConfig(), store)
	seedTestAccount(t, store, "acct-1", "alice@example.com", "correct-horse")

	pair := loginPair(t, engine, "alice@example.com", "correct-horse")

	store.mu.Lock()
	delete(store.accounts, "acct-1")
	store.mu.Unlock()

	if _, err := engine.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for deleted account, got %v", err)
	}
}
