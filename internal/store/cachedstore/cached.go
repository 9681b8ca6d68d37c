// Package cachedstore keeps decoded shards in process. A review run asks
// for the same opening shards game after game; without this every lookup
// would refetch and decompress them from disk or a bucket.
package cachedstore

import (
	"context"

	"github.com/discochess/gamereview/internal/store"
)

// Backend holds decoded shard bytes keyed by shard ID.
type Backend interface {
	// Get returns the shard, or false when it is not held.
	Get(shardID int) ([]byte, bool)
	Set(shardID int, data []byte)
	Stats() Stats
}

// Stats reports how well the backend served shard reads.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// HitRate is Hits as a percentage of all reads, or 0 before any read.
func (s Stats) HitRate() float64 {
	if n := s.Hits + s.Misses; n > 0 {
		return float64(s.Hits) * 100 / float64(n)
	}
	return 0
}

var _ store.Store = (*Store)(nil)

// Store fronts a shard store with a Backend. Reads fill the backend;
// writes reach the backing store first and then replace the held copy,
// so a run sees its own cache writes on the next game.
type Store struct {
	next    store.Store
	backend Backend
}

// New wraps next with backend.
func New(next store.Store, backend Backend) *Store {
	return &Store{next: next, backend: backend}
}

// ReadShard serves shardID from the backend when held. ErrNotFound is
// passed through uncached.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	if data, ok := s.backend.Get(shardID); ok {
		return data, nil
	}
	data, err := s.next.ReadShard(ctx, shardID)
	if err == nil {
		s.backend.Set(shardID, data)
	}
	return data, err
}

// WriteShard stores data and keeps a private copy in the backend.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	if err := s.next.WriteShard(ctx, shardID, data); err != nil {
		return err
	}
	held := make([]byte, len(data))
	copy(held, data)
	s.backend.Set(shardID, held)
	return nil
}

// Stats returns the backend's counters.
func (s *Store) Stats() Stats { return s.backend.Stats() }

// Close closes the backing store.
func (s *Store) Close() error { return s.next.Close() }
