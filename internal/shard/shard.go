// Package shard defines how position keys are distributed across the
// shard files of an evaluation cache.
package shard

// Strategy maps positions to shard IDs.
type Strategy interface {
	// Name returns a human-readable name for this strategy.
	Name() string

	// ShardID computes the shard ID for a position key or full FEN.
	// The returned value is in the range [0, totalShards). Positions that
	// differ only in move counters map to the same shard.
	ShardID(fen string, totalShards int) int
}
