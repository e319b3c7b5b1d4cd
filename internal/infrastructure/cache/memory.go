package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/doclens/backend/internal/domain"
)

// DefaultCleanupInterval is how often expired entries are swept
const DefaultCleanupInterval = 10 * time.Minute

// entry is one cached JSON payload and its deadline
type entry struct {
	payload []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expires)
}

// MemoryCache is a process-local domain.CacheRepository.
// It keeps the JSON encoding of each value, exactly what RedisCache writes,
// so both backends hand back the same decoded shape.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemoryCache starts a cache whose janitor sweeps every cleanupInterval;
// cleanupInterval <= 0 uses DefaultCleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	c := &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.janitor(cleanupInterval)
	return c
}

// Get returns the decoded value stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		return nil, domain.ErrCacheMiss
	}
	return decode(e.payload)
}

// Set encodes value and keeps it for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[key] = entry{payload: payload, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete drops key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Exists reports whether key holds a live value
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && !e.expired(c.now()), nil
}

// Len counts stored entries; expired ones count until the next sweep
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush empties the cache
func (c *MemoryCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Close stops the janitor. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes every entry expired at the cache's current time
func (c *MemoryCache) sweep() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}

// decode turns a stored payload back into generic JSON values.
// A corrupt payload reads as a miss.
func decode(payload []byte) (interface{}, error) {
	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}
