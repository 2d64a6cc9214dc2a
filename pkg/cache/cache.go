package cache

import (
	"sync"
	"time"
)

// Options configures a Cache.
type Options struct {
	// TTL is the default expiration for items added with Set.
	TTL time.Duration
	// MaxItems bounds the cache; the entry closest to expiry is evicted
	// when the bound is hit. Zero means unbounded.
	MaxItems int
	// PurgeWindow is how often expired entries are swept. Zero disables
	// the background sweep.
	PurgeWindow time.Duration
}

type item struct {
	value      any
	expiration int64
}

func (it item) expired() bool {
	return it.expiration > 0 && time.Now().UnixNano() > it.expiration
}

// Cache is a thread-safe in-memory cache with per-item expiration. The
// widget uses it in front of the character catalog so re-filtering does not
// re-fetch.
type Cache struct {
	mu   sync.RWMutex
	opts Options
	data map[string]item
}

// New creates a cache with the given options.
func New(opts Options) *Cache {
	c := &Cache{
		opts: opts,
		data: make(map[string]item),
	}
	if opts.PurgeWindow > 0 {
		go c.sweepLoop()
	}
	return c
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithExpiration(key, value, c.opts.TTL)
}

// SetWithExpiration stores value under key with a specific TTL.
func (c *Cache) SetWithExpiration(key string, value any, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = time.Now().Add(d).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.MaxItems > 0 && len(c.data) >= c.opts.MaxItems {
		if _, exists := c.data[key]; !exists {
			c.evictClosest()
		}
	}

	c.data[key] = item{value: value, expiration: exp}
}

// Get retrieves an unexpired item from the cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.data[key]
	if !found || it.expired() {
		return nil, false
	}
	return it.value, true
}

// Delete removes an item from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Flush removes all items from the cache.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]item)
}

// Count returns the number of stored items, including expired ones not yet
// swept.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.opts.PurgeWindow)
	defer ticker.Stop()

	for range ticker.C {
		c.deleteExpired()
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, it := range c.data {
		if it.expiration > 0 && now > it.expiration {
			delete(c.data, k)
		}
	}
}

// evictClosest removes the entry closest to expiry. Caller must hold the
// lock.
func (c *Cache) evictClosest() {
	var victim string
	var victimExp int64
	first := true
	for k, it := range c.data {
		if first || (it.expiration > 0 && (victimExp == 0 || it.expiration < victimExp)) {
			victim = k
			victimExp = it.expiration
			first = false
		}
	}
	if victim != "" {
		delete(c.data, victim)
	}
}
