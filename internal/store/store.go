// Package store defines the storage backend interface for shard files
// holding cached position evaluations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a shard does not exist in the store.
var ErrNotFound = errors.New("store: shard not found")

// Store defines the interface for storage backends.
// Implementations handle path formats and storage details internally.
type Store interface {
	// ReadShard reads the decoded content of the given shard.
	ReadShard(ctx context.Context, shardID int) ([]byte, error)

	// WriteShard replaces the content of the given shard. Readers never
	// observe a partially written shard.
	WriteShard(ctx context.Context, shardID int, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// ShardName returns the object name for a shard ID with an optional
// codec extension, e.g. "00042.zst".
func ShardName(shardID int, ext string) string {
	name := fmt.Sprintf("%05d", shardID)
	if ext != "" {
		name += "." + ext
	}
	return name
}

// ObjectKey returns the bucket key of a shard under prefix. Surrounding
// slashes in prefix are ignored, so "evals" and "evals/" name the same
// directory.
func ObjectKey(prefix string, shardID int, ext string) string {
	key := "shards/" + ShardName(shardID, ext)
	if p := strings.Trim(prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return key
}
