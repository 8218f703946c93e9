package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from an operation name, a provider name and
// the request payload. The payload is canonicalized through JSON so
// identical requests always map to the same key.
func Key(op, provider string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", payload))
	}
	hash := sha256.Sum256(append([]byte(op+":"+provider+":"), data...))
	return "credence:v1:" + hex.EncodeToString(hash[:])
}
