package changeflag

import (
	"context"
	"sync"
)

// flagKey is the composite map key. Using a struct key instead of string
// concatenation makes collisions between kinds impossible.
type flagKey struct {
	stationID string
	kind      Kind
}

// InMemoryCache is an in-memory implementation of Cache. Suitable for a
// single API instance; multi-instance deployments should use RedisCache
// so all instances observe the same flags.
type InMemoryCache struct {
	mu    sync.Mutex
	flags map[flagKey]bool
}

// NewInMemoryCache creates an empty in-memory change-flag cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		flags: make(map[flagKey]bool),
	}
}

// MarkChanged sets the flag for (stationID, kind).
func (c *InMemoryCache) MarkChanged(_ context.Context, stationID string, kind Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flags[flagKey{stationID: stationID, kind: kind}] = true
	return nil
}

// ConsumeAndClear returns the flag and clears it under one lock, so a
// mark landing after the read began is either fully observed or left
// for the next read, never lost.
func (c *InMemoryCache) ConsumeAndClear(_ context.Context, stationID string, kind Kind) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := flagKey{stationID: stationID, kind: kind}
	value := c.flags[key]
	delete(c.flags, key)
	return value, nil
}

// Peek returns the flag without clearing it.
func (c *InMemoryCache) Peek(_ context.Context, stationID string, kind Kind) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.flags[flagKey{stationID: stationID, kind: kind}], nil
}

var _ Cache = (*InMemoryCache)(nil)
