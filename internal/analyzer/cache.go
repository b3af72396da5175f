package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResultCache remembers analyzer output keyed by the SHA-256 of the image
// bytes. A nil *ResultCache is a valid, always-empty cache.
type ResultCache struct {
	entries *lru.Cache[string, json.RawMessage]
}

// NewResultCache creates a cache holding up to size results. A size of zero
// or less disables caching and returns nil.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[string, json.RawMessage](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{entries: entries}, nil
}

// Key returns the cache key for image bytes.
func Key(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Get returns a cached result for key.
func (c *ResultCache) Get(key string) (json.RawMessage, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

// Add stores result under key.
func (c *ResultCache) Add(key string, result json.RawMessage) {
	if c == nil {
		return
	}
	c.entries.Add(key, append(json.RawMessage(nil), result...))
}

// Len reports the number of cached results.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
