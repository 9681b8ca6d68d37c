// Package rediscache stores evaluations in Redis so several analyzer
// processes can share one cache.
package rediscache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/eval"
)

// DefaultPrefix namespaces keys written by the cache.
const DefaultPrefix = "gamereview:eval:"

// Compile-time checks.
var (
	_ cache.Cache   = (*Cache)(nil)
	_ cache.Counter = (*Cache)(nil)
)

// Cache is a Redis-backed evaluation cache.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix sets the key prefix.
func WithPrefix(p string) Option {
	return func(c *Cache) { c.prefix = p }
}

// WithTTL expires entries after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// Dial connects to the Redis server at url (redis://host:port/db) and
// checks the connection.
func Dial(ctx context.Context, url string, opts ...Option) (*Cache, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return New(client, opts...), nil
}

// New wraps an existing client. The cache owns the client.
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchGet fetches all keys with a single MGET.
func (c *Cache) BatchGet(ctx context.Context, keys []eval.Key) (map[eval.Key]eval.Set, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, cache.ErrClosed
	}

	out := make(map[eval.Key]eval.Set, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = c.redisKey(k)
	}
	vals, err := c.client.MGet(ctx, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		set, err := eval.Unmarshal([]byte(s))
		if err != nil {
			c.logger.Warn("discarding corrupt cache entry", zap.String("fen", keys[i].FEN), zap.Error(err))
			continue
		}
		out[keys[i]] = set
	}
	return out, nil
}

// BatchPut writes entries in one pipeline.
func (c *Cache) BatchPut(ctx context.Context, entries []cache.Entry) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}

	entries = cache.Storable(entries)
	if len(entries) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, e := range entries {
		data, err := e.Set.Marshal()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Key.FEN, err)
		}
		pipe.Set(ctx, c.redisKey(e.Key), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Count scans the key prefix.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return 0, cache.ErrClosed
	}

	var n int64
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scanning cache: %w", err)
	}
	return n, nil
}

// Close closes the client.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.closed = true
	return c.client.Close()
}

func (c *Cache) redisKey(k eval.Key) string {
	return c.prefix + k.ID()
}
