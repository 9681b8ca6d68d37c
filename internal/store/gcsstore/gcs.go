// Package gcsstore keeps evaluation cache shards in a Google Cloud
// Storage bucket.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/store"
)

var _ store.Store = (*Store)(nil)

// Option configures New.
type Option func(*Store)

// WithPrefix places shards under prefix/shards/ in the bucket.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// Store reads and writes shards as GCS objects. The bucket must exist.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	codec  codec.Codec
}

// New opens a client with application default credentials.
func New(ctx context.Context, bucket string, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	s := &Store{client: client, bucket: client.Bucket(bucket), codec: c}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ReadShard downloads and decodes a shard.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := s.bucket.Object(s.key(shardID)).NewReader(ctx)
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return nil, store.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("opening shard %d: %w", shardID, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("downloading shard %d: %w", shardID, err)
	}
	return codec.Decode(s.codec, raw)
}

// WriteShard encodes and uploads a shard. GCS publishes the object only
// when the writer closes cleanly.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	raw, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}
	w := s.bucket.Object(s.key(shardID)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("uploading shard %d: %w", shardID, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing shard %d: %w", shardID, err)
	}
	return nil
}

// Close closes the GCS client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) key(shardID int) string {
	return store.ObjectKey(s.prefix, shardID, s.codec.Extension())
}
