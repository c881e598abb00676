package scorer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/Veraticus/docmatch/internal/model"
)

// cacheEntry represents a cached certainty.
type cacheEntry struct {
	expiry    time.Time
	certainty float64
}

// scoreCache provides thread-safe caching for remote certainties.
type scoreCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// newScoreCache creates a new cache with the specified TTL.
func newScoreCache(ttl time.Duration) *scoreCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &scoreCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// cacheKey identifies a document pair by content, so an edited document
// is scored again.
func cacheKey(a, b model.Document) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(a)
	_ = enc.Encode(b)
	return hex.EncodeToString(h.Sum(nil))
}

// get retrieves a certainty if it exists and hasn't expired.
func (c *scoreCache) get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return 0, false
	}
	return entry.certainty, true
}

// set stores a certainty.
func (c *scoreCache) set(key string, certainty float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		certainty: certainty,
		expiry:    time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *scoreCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *scoreCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *scoreCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}
