// Package s3store keeps evaluation cache shards in an S3 bucket, or any
// S3-compatible service such as MinIO, so several machines reviewing
// games can share one cache.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/store"
)

var _ store.Store = (*Store)(nil)

// objectAPI is the part of *s3.Client the store calls.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type settings struct {
	prefix   string
	region   string
	endpoint string
}

// Option configures New.
type Option func(*settings)

// WithPrefix places shards under prefix/shards/ in the bucket.
func WithPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// WithRegion overrides the region from the AWS environment.
func WithRegion(region string) Option {
	return func(s *settings) { s.region = region }
}

// WithEndpoint points the client at an S3-compatible service. Path-style
// addressing is used since most such services need it.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) { s.endpoint = endpoint }
}

// Store reads and writes shards as objects. The bucket must exist.
type Store struct {
	client objectAPI
	bucket string
	prefix string
	codec  codec.Codec
}

// New loads AWS credentials from the environment and returns a store
// for bucket.
func New(ctx context.Context, bucket string, c codec.Codec, opts ...Option) (*Store, error) {
	var set settings
	for _, opt := range opts {
		opt(&set)
	}

	var loadOpts []func(*config.LoadOptions) error
	if set.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(set.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if set.endpoint != "" {
			o.BaseEndpoint = aws.String(set.endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: bucket, prefix: set.prefix, codec: c}, nil
}

// ReadShard downloads and decodes a shard. A missing object is
// store.ErrNotFound.
func (s *Store) ReadShard(ctx context.Context, shardID int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(shardID)),
	})
	var noKey *types.NoSuchKey
	switch {
	case errors.As(err, &noKey):
		return nil, store.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("getting shard %d: %w", shardID, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading shard %d: %w", shardID, err)
	}
	return codec.Decode(s.codec, raw)
}

// WriteShard encodes and uploads a shard. S3 replaces the object
// atomically, so concurrent readers see the old or the new shard.
func (s *Store) WriteShard(ctx context.Context, shardID int, data []byte) error {
	raw, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(shardID)),
		Body:          bytes.NewReader(raw),
		ContentLength: aws.Int64(int64(len(raw))),
	}); err != nil {
		return fmt.Errorf("putting shard %d: %w", shardID, err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no open resources.
func (s *Store) Close() error { return nil }

func (s *Store) key(shardID int) string {
	return store.ObjectKey(s.prefix, shardID, s.codec.Extension())
}
