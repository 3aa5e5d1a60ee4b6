package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/derfian/httpkom/pkg/token"
)

const (
	// SessionIDPrefix is the prefix for public session identifiers.
	SessionIDPrefix = "hkss-"

	// TokenPrefix is the prefix for session tokens (secret).
	TokenPrefix = "hkst_"

	// TokenBodyLength is the base64url length of a 32-byte token body.
	TokenBodyLength = 43

	// TokenLength is the total token length (prefix + body).
	TokenLength = len(TokenPrefix) + TokenBodyLength
)

// Person identifies a LysKOM person.
type Person struct {
	PersNo   int
	PersName string
}

// Client is the client name and version reported to the backend.
type Client struct {
	Name    string
	Version string
}

// Credentials is what a login request supplies. Exactly one of PersNo and
// Name identifies the person; PersNo wins when both are set.
type Credentials struct {
	PersNo   int
	Name     string
	Password string
}

// GenerateSessionID returns a new public session identifier.
// Format: hkss-{ulid_lowercase}.
func GenerateSessionID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return SessionIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidSessionID checks the hkss-{ulid} format.
func IsValidSessionID(id string) bool {
	if !strings.HasPrefix(id, SessionIDPrefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(SessionIDPrefix):]))
	return err == nil
}

// GenerateToken mints a session token. Only the hash should be retained
// server-side; the plaintext goes to the client once.
func GenerateToken() (plaintext, hash string, err error) {
	plaintext, err = token.New(TokenPrefix)
	if err != nil {
		return "", "", ErrInternalServer.WithCause(err)
	}
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the registry key for a token.
func HashToken(plaintext string) string {
	return token.Hash(plaintext)
}

// ValidateTokenFormat reports whether s looks like a session token.
// Malformed tokens are treated like unknown ones by callers.
func ValidateTokenFormat(s string) bool {
	return len(s) == TokenLength && token.HasPrefix(s, TokenPrefix)
}
