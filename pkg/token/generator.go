package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultLength is the default number of random bytes in a token.
const DefaultLength = 32

// New returns prefix followed by DefaultLength random bytes, encoded.
func New(prefix string) (string, error) {
	body, err := GenerateWithLength(DefaultLength)
	if err != nil {
		return "", err
	}
	return prefix + body, nil
}

// Generate returns DefaultLength random bytes, base64url encoded.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength returns length random bytes, base64url encoded.
func GenerateWithLength(length int) (string, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateBytes returns length random bytes.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
