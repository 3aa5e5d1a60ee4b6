// Package token mints and hashes opaque bearer tokens.
//
// A token is an optional prefix followed by base64url (no padding) encoded
// random bytes from crypto/rand. Servers keep only the SHA-256 hex digest of
// a token; comparisons against a stored digest are constant time.
package token
