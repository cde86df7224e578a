package scorer

import (
	"sort"
	"sync"

	"github.com/feiyue126/msgfplus/pkg/condition"
)

// Cache maps query keys to resolved models. Entries are never evicted.
type Cache struct {
	entries map[condition.Key]*Model
	mu      sync.RWMutex
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[condition.Key]*Model),
	}
}

// Lookup returns the model cached under key.
func (c *Cache) Lookup(key condition.Key) (*Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[key]
	return m, ok
}

// Store caches m under key unless an entry already exists, and returns the
// entry held after the call. The first stored model for a key wins.
func (c *Cache) Store(key condition.Key, m *Model) *Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = m
	return m
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached keys ordered by canonical name.
func (c *Cache) Keys() []condition.Key {
	c.mu.RLock()
	keys := make([]condition.Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Name() < keys[j].Name()
	})
	return keys
}
