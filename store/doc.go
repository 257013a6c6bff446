// Package store provides a Redis-backed implementation of
// authcore.AccountStore.
//
// Layout per account (prefix configurable, default "ac"):
//
//	ac:acct:<id>      hash: identifier, phash, tfa, gen
//	ac:ident:<ident>  string: account id (login index)
//	ac:2fa:<id>       binary: versioned TOTP secret record
//	ac:bc:<id>        set: hex backup-code hashes
//	ac:enroll:<id>    binary: pending enrollment record, TTL-bound
//
// The generation counter lives in the account hash. Compare-and-increment
// runs under WATCH with a bounded retry loop; every other operation is a
// single round-trip.
package store
