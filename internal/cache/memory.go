package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// Memory is the in-process cache layer.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates a memory cache whose entries default to the given
// TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *Memory) Get(key string) ([]byte, bool) {
	if v, found := c.store.Get(key); found {
		return v.([]byte), true
	}
	return nil, false
}

// Set stores a value; a zero TTL uses the cache default.
func (c *Memory) Set(key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

func (c *Memory) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

func (c *Memory) Clear() error {
	c.store.Flush()
	return nil
}

// Len reports the number of live entries.
func (c *Memory) Len() int {
	return c.store.ItemCount()
}
