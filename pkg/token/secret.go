package token

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for HashSecret.
const (
	argonTime    = 2
	argonMemory  = 16 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashSecret returns an Argon2id hash of secret in the PHC string format
// $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>.
func HashSecret(secret string) (string, error) {
	salt, err := GenerateBytes(argonSaltLen)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseSecretHash(hash string) (*argonParams, bool) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, false
	}
	p := &argonParams{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, false
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return nil, false
	}
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, false
	}
	return p, true
}

// IsSecretHash reports whether hash is a well-formed Argon2id hash.
func IsSecretHash(hash string) bool {
	_, ok := parseSecretHash(hash)
	return ok
}

// VerifySecret checks secret against an Argon2id hash produced by
// HashSecret, using the parameters recorded in the hash.
func VerifySecret(secret, hash string) bool {
	p, ok := parseSecretHash(hash)
	if !ok {
		return false
	}
	key := argon2.IDKey([]byte(secret), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}
