// Package authcore implements the session lifecycle of a credential-based
// authentication system: password login, optional TOTP and backup-code
// two-factor step-up, access/refresh token pairs, refresh rotation with
// reuse detection, and step-up password re-verification.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the [AccountStore] capability, and value types (LoginResult, TokenPair,
// MetricsSnapshot, etc.). Token signing lives in the token sub-package,
// password hashing in password, and the Redis-backed AccountStore in store.
//
// # Trust model
//
// All session invalidation flows through a per-account generation counter:
// a refresh token is live exactly when its embedded generation matches the
// stored counter. The engine never persists issued tokens; revocation is a
// counter bump. The only operation that requires strict atomicity from the
// backing store is the compare-and-increment on that counter.
//
// # What this package must NOT do
//
//   - Transport concerns: no HTTP handlers, cookies, or CSRF handling.
//   - Rate limiting or lockout policy; callers throttle upstream.
//   - Account provisioning beyond what AccountStore exposes.
package authcore
