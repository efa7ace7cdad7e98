package rescue

import (
	"context"
	"sync"

	"bekal-bangsa/internal/pkg/common"
)

// Cache is a single-slot memo of the last rescue recipe. Lookup hits only when the stored key
// equals key exactly; Store overwrites the slot.
type Cache interface {
	Lookup(ctx context.Context, key string) (*common.RescueRecipe, bool)
	Store(ctx context.Context, key string, recipe *common.RescueRecipe)
}

// Entry is the content of the slot.
type Entry struct {
	Key    string               `json:"key"`
	Recipe *common.RescueRecipe `json:"recipe"`
}

// MemoryCache keeps the slot in process memory.
type MemoryCache struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Lookup returns the cached recipe when the slot holds key.
func (c *MemoryCache) Lookup(_ context.Context, key string) (*common.RescueRecipe, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || c.entry.Recipe == nil || c.entry.Key != key {
		common.LogCacheMiss("rescue", key)
		return nil, false
	}
	common.LogCacheHit("rescue", key)
	return c.entry.Recipe, true
}

// Store replaces the slot.
func (c *MemoryCache) Store(_ context.Context, key string, recipe *common.RescueRecipe) {
	if recipe == nil {
		return
	}
	c.mu.Lock()
	c.entry = &Entry{Key: key, Recipe: recipe}
	c.mu.Unlock()
}

// peek returns the current slot, or nil when empty.
func (c *MemoryCache) peek() *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return nil
	}
	e := *c.entry
	return &e
}
