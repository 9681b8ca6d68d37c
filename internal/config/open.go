package config

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/cache/badgercache"
	"github.com/discochess/gamereview/internal/cache/memcache"
	"github.com/discochess/gamereview/internal/cache/rediscache"
	"github.com/discochess/gamereview/internal/cache/shardcache"
	"github.com/discochess/gamereview/internal/cache/sqlcache"
	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/codec/gzipcodec"
	"github.com/discochess/gamereview/internal/codec/noopcodec"
	"github.com/discochess/gamereview/internal/codec/zstdcodec"
	"github.com/discochess/gamereview/internal/engine/uci"
	"github.com/discochess/gamereview/internal/shard"
	"github.com/discochess/gamereview/internal/shard/fnvshard"
	"github.com/discochess/gamereview/internal/shard/materialshard"
	"github.com/discochess/gamereview/internal/stats"
	"github.com/discochess/gamereview/internal/store"
	"github.com/discochess/gamereview/internal/store/cachedstore"
	"github.com/discochess/gamereview/internal/store/cachedstore/memory"
	"github.com/discochess/gamereview/internal/store/diskstore"
	"github.com/discochess/gamereview/internal/store/gcsstore"
	"github.com/discochess/gamereview/internal/store/s3store"
)

// NewCodec returns the shard codec named by c.Codec.
func (c Config) NewCodec() codec.Codec {
	switch c.Codec {
	case "gzip":
		return gzipcodec.New()
	case "none":
		return noopcodec.New()
	default:
		return zstdcodec.New()
	}
}

// NewStrategy returns the shard strategy named by c.ShardStrategy.
func (c Config) NewStrategy() shard.Strategy {
	if c.ShardStrategy == "fnv" {
		return fnvshard.New()
	}
	return materialshard.New()
}

// OpenCache opens the configured evaluation cache. The caller closes it.
func (c Config) OpenCache(ctx context.Context, logger *zap.Logger, collector stats.Collector) (cache.Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	log := logger.Named("cache")

	switch c.CacheBackend {
	case BackendMemory:
		return memcache.New(), nil
	case BackendSQLite:
		return orNil(sqlcache.Open(c.CachePath, log))
	case BackendBadger:
		return orNil(badgercache.Open(badgercache.Config{Path: c.CachePath, Logger: log}))
	case BackendRedis:
		return orNil(rediscache.Dial(ctx, c.RedisURL, rediscache.WithLogger(log)))
	case BackendDisk, BackendS3, BackendGCS:
		st, err := c.openStore(ctx)
		if err != nil {
			return nil, err
		}
		front := cachedstore.New(st, memory.New(c.ShardCacheSize, 0, collector))
		return shardcache.New(front,
			shardcache.WithStrategy(c.NewStrategy()),
			shardcache.WithTotalShards(c.Shards),
			shardcache.WithLogger(log),
			shardcache.WithStats(collector),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", ErrInvalid, c.CacheBackend)
	}
}

// orNil keeps a failed constructor's typed nil out of the interface.
func orNil[C cache.Cache](c C, err error) (cache.Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c Config) openStore(ctx context.Context) (store.Store, error) {
	cd := c.NewCodec()
	switch c.CacheBackend {
	case BackendS3:
		opts := []s3store.Option{s3store.WithPrefix(c.BucketPrefix)}
		if c.Region != "" {
			opts = append(opts, s3store.WithRegion(c.Region))
		}
		if c.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(c.Endpoint))
		}
		return s3store.New(ctx, c.Bucket, cd, opts...)
	case BackendGCS:
		return gcsstore.New(ctx, c.Bucket, cd, gcsstore.WithPrefix(c.BucketPrefix))
	}

	if err := os.MkdirAll(c.CachePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if _, err := shardcache.EnsureManifest(c.CachePath, c.Manifest()); err != nil {
		return nil, err
	}
	return diskstore.New(c.CachePath, cd)
}

// Manifest describes the shard layout of a disk cache built from c.
func (c Config) Manifest() shardcache.Manifest {
	return shardcache.Manifest{
		TotalShards: c.Shards,
		Strategy:    c.NewStrategy().Name(),
		Compression: c.Codec,
	}
}

// OpenEngine locates and starts Stockfish. dir is searched when no
// engine path is configured.
func (c Config) OpenEngine(dir string, logger *zap.Logger, collector stats.Collector) (*uci.Engine, error) {
	path, err := FindEngine(c.EnginePath, dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return uci.New(path,
		uci.WithThreads(c.Threads),
		uci.WithHashMB(c.HashMB),
		uci.WithLogger(logger.Named("engine")),
		uci.WithStats(collector),
	)
}
