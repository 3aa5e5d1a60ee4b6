package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Hash returns the hex encoded SHA-256 digest of token.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Verify compares token against a stored digest in constant time.
func Verify(token, expectedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(token)), []byte(expectedHash)) == 1
}

// HasPrefix reports whether token starts with prefix and the rest is a
// well-formed base64url body.
func HasPrefix(token, prefix string) bool {
	if !strings.HasPrefix(token, prefix) {
		return false
	}
	body := token[len(prefix):]
	if body == "" {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil
}
