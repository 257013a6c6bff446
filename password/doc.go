// Package password hashes and verifies login passwords with argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Because parameters travel with the hash, [Hasher.NeedsUpgrade] can detect
// hashes produced with weaker settings so the caller can re-hash on the next
// successful login.
//
// This package owns hashing and verification only; it never stores
// credentials and imports no other authcore package.
package password
