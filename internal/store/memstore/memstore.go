// Package memstore is a map-backed shard store for tests and benchmarks.
package memstore

import (
	"context"
	"sync"

	"github.com/discochess/gamereview/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps private copies of shard bytes and counts writes.
type Store struct {
	mu     sync.RWMutex
	shards map[int][]byte
	writes int
}

func New() *Store {
	return &Store{shards: map[int][]byte{}}
}

// SetShard seeds a shard without counting it as a write.
func (s *Store) SetShard(shardID int, data []byte) {
	s.mu.Lock()
	s.shards[shardID] = clone(data)
	s.mu.Unlock()
}

func (s *Store) ReadShard(_ context.Context, shardID int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, ok := s.shards[shardID]; ok {
		return data, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.shards[shardID] = clone(data)
	s.writes++
	s.mu.Unlock()
	return nil
}

// Writes counts WriteShard calls, so tests can check that cache write-back
// touched each shard once.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *Store) Close() error { return nil }

func clone(b []byte) []byte { return append([]byte(nil), b...) }
