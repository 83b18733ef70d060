package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey returns the hex-encoded SHA-256 digest used as the cache key for a
// token value.
func hashKey(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return hex.EncodeToString(hasher.Sum(nil))
}
