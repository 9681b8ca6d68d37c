// Package fnvshard implements FNV-1a hash-based sharding.
//
// Keys spread uniformly across shards, so a single game touches many of
// them. Prefer materialshard when writes are batched per game.
package fnvshard

import (
	"hash/fnv"

	"github.com/discochess/gamereview/internal/fen"
	"github.com/discochess/gamereview/internal/shard"
)

// Strategy implements FNV-1a hash-based sharding.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a new FNV-based sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "fnv32"
}

// ShardID hashes the normalized position key.
func (s *Strategy) ShardID(fenStr string, totalShards int) int {
	key, err := fen.Normalize(fenStr)
	if err != nil {
		key = fenStr
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(totalShards))
}
