// Package token signs and verifies the purpose-bound bearer tokens used by
// the authentication core: short-lived access tokens, rotating refresh tokens
// carrying a generation number, and the temporary pending-2fa bridge token.
package token
