package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher turns identifiers such as client IPs into salted, truncated hashes
// so raw values never reach disk or logs.
type Hasher struct {
	salt string
}

// NewHasher uses salt, or a random per-process salt when salt is empty.
// With a random salt hashes are stable only for the life of the process.
func NewHasher(salt string) (*Hasher, error) {
	if salt == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		salt = hex.EncodeToString(b)
	}
	return &Hasher{salt: salt}, nil
}

// Sum returns the first 16 hex characters of sha256(value+salt).
func (h *Hasher) Sum(value string) string {
	sum := sha256.Sum256([]byte(value + h.salt))
	return hex.EncodeToString(sum[:])[:16]
}
