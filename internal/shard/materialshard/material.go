// Package materialshard implements material-based sharding.
//
// Positions are grouped by piece counts. Consecutive positions of a game
// usually share material, so the evaluations written for one game land in
// a handful of shards.
package materialshard

import (
	"hash/fnv"

	"github.com/discochess/gamereview/internal/fen"
	"github.com/discochess/gamereview/internal/shard"
)

// Strategy implements material-based sharding.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a new material-based sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "material"
}

// ShardID packs the material signature into a word and hashes it, so
// equal material always maps to the same shard and distinct signatures
// spread evenly for any shard count.
//
// Layout, 3 bits per field capped at 7, pawns as count/2:
// queens, rooks, minors, pawns for White then Black.
func (s *Strategy) ShardID(fenStr string, totalShards int) int {
	mat, err := fen.ParseMaterial(fenStr)
	if err != nil {
		return hash([]byte(fenStr), totalShards)
	}

	fields := []int{
		mat.WhiteQueens, mat.WhiteRooks, mat.WhiteBishops + mat.WhiteKnights, mat.WhitePawns / 2,
		mat.BlackQueens, mat.BlackRooks, mat.BlackBishops + mat.BlackKnights, mat.BlackPawns / 2,
	}
	var sig uint32
	for i, n := range fields {
		sig |= uint32(min(n, 7)) << (3 * i)
	}
	return hash([]byte{byte(sig), byte(sig >> 8), byte(sig >> 16)}, totalShards)
}

func hash(b []byte, totalShards int) int {
	h := fnv.New32a()
	h.Write(b)
	return int(h.Sum32() % uint32(totalShards))
}
