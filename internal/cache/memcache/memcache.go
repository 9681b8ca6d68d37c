// Package memcache implements an in-process evaluation cache.
package memcache

import (
	"context"
	"sync"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/eval"
)

// Compile-time checks.
var (
	_ cache.Cache   = (*Cache)(nil)
	_ cache.Counter = (*Cache)(nil)
)

// Cache keeps evaluations in a map. Contents are lost on Close.
type Cache struct {
	mu      sync.RWMutex
	entries map[eval.Key]eval.Set
	closed  bool
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[eval.Key]eval.Set)}
}

// BatchGet returns the stored sets for keys.
func (c *Cache) BatchGet(ctx context.Context, keys []eval.Key) (map[eval.Key]eval.Set, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, cache.ErrClosed
	}

	out := make(map[eval.Key]eval.Set, len(keys))
	for _, k := range keys {
		if set, ok := c.entries[k]; ok {
			out[k] = append(eval.Set{}, set...)
		}
	}
	return out, nil
}

// BatchPut stores entries.
func (c *Cache) BatchPut(ctx context.Context, entries []cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}

	for _, e := range cache.Storable(entries) {
		c.entries[e.Key] = append(eval.Set{}, e.Set...)
	}
	return nil
}

// Count returns the number of stored entries.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return 0, cache.ErrClosed
	}
	return int64(len(c.entries)), nil
}

// Close drops all entries.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.closed = true
	c.entries = nil
	return nil
}
