// Package auth holds API key material handling and request throttling.
// Raw key material exists only at creation time; everything downstream
// works with its SHA-256 hash.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// keyPrefixLen is how much of the raw key is kept in clear for display
// ("idp_a1b2..."), enough to recognize a key without exposing it.
const keyPrefixLen = 8

// GeneratedKey is the one-time output of key creation. Raw is shown to
// the caller exactly once and never stored.
type GeneratedKey struct {
	Raw    string
	Hash   string
	Prefix string
}

// GenerateKey creates new random key material.
func GenerateKey() (*GeneratedKey, error) {
	material := make([]byte, 24)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("generating key material: %w", err)
	}

	raw := "idp_" + base64.RawURLEncoding.EncodeToString(material)
	return &GeneratedKey{
		Raw:    raw,
		Hash:   HashKey(raw),
		Prefix: raw[:keyPrefixLen],
	}, nil
}

// HashKey maps presented key material to its stored lookup hash.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
