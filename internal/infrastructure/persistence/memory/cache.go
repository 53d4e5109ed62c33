package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("memory cache: key not found")

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// Cache is a TTL map with the same JSON semantics as the Redis cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	clock   clockwork.Clock
}

// NewCache creates an empty cache. A nil clock means the real clock.
func NewCache(clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{entries: make(map[string]cacheEntry), clock: clock}
}

// Set stores value as JSON. A zero ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory cache: marshal %s: %w", key, err)
	}
	entry := cacheEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = c.clock.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// Get decodes the value stored under key into dest.
func (c *Cache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !entry.expiresAt.IsZero() && !c.clock.Now().Before(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.data, dest)
}

// DeleteByPattern removes keys matching a glob pattern.
func (c *Cache) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("memory cache: bad pattern %q: %w", pattern, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if globMatch(pattern, key) {
			delete(c.entries, key)
		}
	}
	return nil
}

// globMatch treats a trailing "*" as a plain prefix match so keys containing
// "/" are covered the way Redis SCAN MATCH covers them.
func globMatch(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok && !strings.ContainsAny(prefix, `*?[\`) {
		return strings.HasPrefix(key, prefix)
	}
	matched, _ := path.Match(pattern, key)
	return matched
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
