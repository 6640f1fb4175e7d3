package forgehttp

import (
	"sync"
	"time"
)

// tokenEntry is a cached credential: the full "<type> <access>" string and
// its absolute expiry.
type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// TokenCache is the process-local mapping from cache key (agent||scope) to
// (token, absolute expiry) named by C1. It is safe for concurrent use; a
// single mutex guards the whole map, matching the deliberately coarse
// serialization §5 asks the AuthHandler's refresh critical section to
// provide (the cache itself does not serialize refreshes -- that's on the
// caller, see AuthHandler.ensureToken).
type TokenCache struct {
	mu      sync.RWMutex
	entries map[string]tokenEntry
}

// NewTokenCache returns an empty TokenCache.
func NewTokenCache() *TokenCache {
	return &TokenCache{entries: make(map[string]tokenEntry)}
}

// TryGet returns the current entry for key if one exists and has not
// expired. An expired entry is treated as absent; it is not evicted here
// (no background eviction is required, per §3 -- it may linger until the
// next Add for the same key overwrites it).
func (c *TokenCache) TryGet(key string) (token string, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !time.Now().Before(entry.expiresAt) {
		return "", false
	}
	return entry.token, true
}

// Add inserts or overwrites the entry for key with expiresAt = now + ttl.
// There is no in-place update: a refresh always produces a brand new entry.
func (c *TokenCache) Add(key, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = tokenEntry{token: token, expiresAt: time.Now().Add(ttl)}
}

// Purge removes any cached entry for key, forcing the next TryGet to miss.
// This is not named by spec.md; it supplements it for callers that learn
// out-of-band that a token was revoked (see SPEC_FULL.md).
func (c *TokenCache) Purge(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}
