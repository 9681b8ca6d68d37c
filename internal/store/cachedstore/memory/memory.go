// Package memory is the in-process shard backend: an LRU over decoded
// shard bytes with an optional expiry.
package memory

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/discochess/gamereview/internal/stats"
	"github.com/discochess/gamereview/internal/store/cachedstore"
)

var _ cachedstore.Backend = (*Backend)(nil)

// Backend is safe for concurrent use. With a non-zero ttl a shard written
// by another gamereview process is reread once its held copy expires.
type Backend struct {
	lru       *expirable.LRU[int, []byte]
	collector stats.Collector

	hits, misses atomic.Int64
}

// New holds at most capacity shards. ttl 0 keeps them until evicted.
// collector may be nil.
func New(capacity int, ttl time.Duration, collector stats.Collector) *Backend {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Backend{
		lru:       expirable.NewLRU[int, []byte](capacity, nil, ttl),
		collector: collector,
	}
}

func (b *Backend) Get(shardID int) ([]byte, bool) {
	data, ok := b.lru.Get(shardID)
	if !ok {
		b.misses.Add(1)
		b.collector.IncCounter(stats.MetricStoreCacheMisses, 1)
		return nil, false
	}
	b.hits.Add(1)
	b.collector.IncCounter(stats.MetricStoreCacheHits, 1)
	return data, true
}

func (b *Backend) Set(shardID int, data []byte) {
	b.lru.Add(shardID, data)
	b.collector.SetGauge(stats.MetricStoreCacheSize, int64(b.lru.Len()))
}

func (b *Backend) Stats() cachedstore.Stats {
	return cachedstore.Stats{Hits: b.hits.Load(), Misses: b.misses.Load(), Size: b.lru.Len()}
}
