// Package diskstore implements a disk-based filesystem storage backend.
package diskstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a disk-based filesystem storage backend. Shards live under
// <root>/shards.
type Store struct {
	root  string
	codec codec.Codec
}

// New creates a new disk store rooted at the given directory, creating
// it if needed. The codec handles compression/decompression.
func New(root string, codec codec.Codec) (*Store, error) {
	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("creating root directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat root directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Store{
		root:  root,
		codec: codec,
	}, nil
}

// ReadShard reads and decompresses the content of the given shard.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compressed, err := os.ReadFile(s.shardPath(shardID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading shard: %w", err)
	}
	return codec.Decode(s.codec, compressed)
}

// WriteShard compresses data and replaces the shard file atomically by
// writing a temporary file and renaming it into place.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	compressed, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.root, "shards")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating shards directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".shard-*")
	if err != nil {
		return fmt.Errorf("creating temp shard: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		return fmt.Errorf("writing shard: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing shard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing shard: %w", err)
	}
	if err := os.Rename(tmpName, s.shardPath(shardID)); err != nil {
		return fmt.Errorf("renaming shard: %w", err)
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

// shardPath returns the filesystem path for a shard.
func (s *Store) shardPath(shardID int) string {
	return filepath.Join(s.root, "shards", store.ShardName(shardID, s.codec.Extension()))
}
