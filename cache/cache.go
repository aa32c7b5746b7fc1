package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/wovenlabs/gossamer/forge"
)

// entry holds a cached page with its creation timestamp.
type entry struct {
	page      *forge.Page
	createdAt time.Time
}

// Cache is an in-memory cache for woven pages. Weaving is deterministic,
// so a cached page is always byte-identical to a fresh weave; the cache
// only saves the substitution work on hot assignments.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache holding at most maxEntries pages for at most ttl.
// A background goroutine runs every 5 minutes to evict expired entries.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the weave inputs.
func Key(variant int, seed int64, format string) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(variant)))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatInt(seed, 10)))
	h.Write([]byte("|"))
	h.Write([]byte(format))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached page if it exists and is younger than the TTL.
// Returns the page and whether it was a cache hit.
func (c *Cache) Get(key string) (*forge.Page, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > c.ttl {
		return nil, false
	}

	return e.page, true
}

// Set stores a page in the cache. If the cache is at capacity, a random
// entry is evicted to make room.
func (c *Cache) Set(key string, page *forge.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		page:      page,
		createdAt: time.Now(),
	}
}

// Len reports the current number of cached pages.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
