package messaging

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/openappsec-go/agentcore/internal/domain/messaging"
)

// DefaultCacheTTL is the default expiry for a cached GET response, per
// spec §4.1 "Caching".
const DefaultCacheTTL = 40 * time.Second

type cacheEntry struct {
	response  messaging.Response
	expiresAt time.Time
}

// ResponseCache memoizes GET responses to the fog by URI, bypassed for
// non-fog and non-GET calls. Keys are hashed with xxhash rather than
// compared as raw strings, matching the teacher's use of xxhash for
// cache/dedup keys on hot paths.
type ResponseCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[uint64]cacheEntry
}

// NewResponseCache returns a cache with the given TTL; ttl<=0 uses
// DefaultCacheTTL.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{ttl: ttl, entries: make(map[uint64]cacheEntry)}
}

func cacheKey(uri string) uint64 {
	return xxhash.Sum64String(uri)
}

// Get returns the cached response for uri, if present and unexpired.
func (c *ResponseCache) Get(uri string) (messaging.Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(uri)]
	if !ok || time.Now().After(e.expiresAt) {
		return messaging.Response{}, false
	}
	return e.response, true
}

// Put stores resp for uri, expiring after the cache's TTL.
func (c *ResponseCache) Put(uri string, resp messaging.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(uri)] = cacheEntry{response: resp, expiresAt: time.Now().Add(c.ttl)}
}

// Purge drops every expired entry; intended to be called periodically by
// the scheduler rather than on every Get.
func (c *ResponseCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
