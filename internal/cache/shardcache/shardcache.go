// Package shardcache stores evaluations in sorted JSONL shards on any
// store.Store backend (disk, GCS, S3, memory).
//
// Keys are mapped to shards by a shard.Strategy on their FEN. Lookups
// binary search the shard. Writes merge new records into the shard and
// replace it whole, so each BatchPut costs one read and one write per
// touched shard.
package shardcache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/search"
	"github.com/discochess/gamereview/internal/shard"
	"github.com/discochess/gamereview/internal/shard/materialshard"
	"github.com/discochess/gamereview/internal/stats"
	"github.com/discochess/gamereview/internal/store"
)

// DefaultTotalShards is the default number of shards.
const DefaultTotalShards = 1024

// Compile-time checks.
var (
	_ cache.Cache   = (*Cache)(nil)
	_ cache.Counter = (*Cache)(nil)
)

// Cache is a sharded evaluation cache.
type Cache struct {
	store       store.Store
	strategy    shard.Strategy
	totalShards int
	logger      *zap.Logger
	stats       stats.Collector

	// mu serializes shard read-modify-write cycles.
	mu     sync.Mutex
	closed bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithStrategy sets the sharding strategy. Defaults to material sharding.
func WithStrategy(s shard.Strategy) Option {
	return func(c *Cache) { c.strategy = s }
}

// WithTotalShards sets the shard count.
func WithTotalShards(n int) Option {
	return func(c *Cache) { c.totalShards = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithStats sets the stats collector.
func WithStats(s stats.Collector) Option {
	return func(c *Cache) { c.stats = s }
}

// New creates a cache over s. The cache owns s and closes it.
func New(s store.Store, opts ...Option) *Cache {
	c := &Cache{
		store:       s,
		strategy:    materialshard.New(),
		totalShards: DefaultTotalShards,
		logger:      zap.NewNop(),
		stats:       stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchGet returns the stored sets for keys.
func (c *Cache) BatchGet(ctx context.Context, keys []eval.Key) (map[eval.Key]eval.Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, cache.ErrClosed
	}

	out := make(map[eval.Key]eval.Set, len(keys))
	byShard := make(map[int][]eval.Key)
	for _, k := range keys {
		id := c.shardOf(k)
		byShard[id] = append(byShard[id], k)
	}

	for _, id := range sortedIDs(byShard) {
		data, err := c.readShard(ctx, id)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		for _, k := range byShard[id] {
			rec, err := search.Search(data, k.ID())
			if errors.Is(err, search.ErrNotFound) {
				continue
			}
			if errors.Is(err, search.ErrCorrupt) {
				c.logger.Warn("discarding corrupt cache record",
					zap.Int("shard", id),
					zap.String("fen", k.FEN),
					zap.Error(err),
				)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("shard %d: %w", id, err)
			}
			out[k] = rec.Lines
		}
	}
	return out, nil
}

// BatchPut merges entries into their shards.
func (c *Cache) BatchPut(ctx context.Context, entries []cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}

	byShard := make(map[int][]search.Record)
	for _, e := range cache.Storable(entries) {
		id := c.shardOf(e.Key)
		byShard[id] = append(byShard[id], search.NewRecord(e.Key, e.Set))
	}

	for _, id := range sortedIDs(byShard) {
		existing, err := c.readShard(ctx, id)
		if err != nil {
			return err
		}
		merged, err := search.Merge(existing, byShard[id])
		if err != nil {
			return fmt.Errorf("shard %d: %w", id, err)
		}
		if err := c.store.WriteShard(ctx, id, merged); err != nil {
			return fmt.Errorf("writing shard %d: %w", id, err)
		}
		c.logger.Debug("shard updated",
			zap.Int("shard", id),
			zap.Int("records", len(byShard[id])),
		)
	}
	return nil
}

// Count scans every shard and returns the number of stored records.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, cache.ErrClosed
	}

	var n int64
	for id := 0; id < c.totalShards; id++ {
		data, err := c.readShard(ctx, id)
		if err != nil {
			return 0, err
		}
		n += int64(len(search.SplitLines(data)))
	}
	return n, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.closed = true
	return c.store.Close()
}

// ShardOf returns the shard a key is stored in.
func (c *Cache) ShardOf(k eval.Key) int {
	return c.shardOf(k)
}

func (c *Cache) shardOf(k eval.Key) int {
	return c.strategy.ShardID(k.FEN, c.totalShards)
}

// readShard returns nil data for a missing shard.
func (c *Cache) readShard(ctx context.Context, id int) ([]byte, error) {
	data, err := c.store.ReadShard(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading shard %d: %w", id, err)
	}
	c.stats.IncCounter(stats.MetricShardFetches, 1)
	return data, nil
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
