// Package badgercache stores evaluations in an embedded Badger key-value
// database.
package badgercache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/eval"
)

const keyPrefix = "eval/"

// ErrNoPath is returned when a persistent database has no path.
var ErrNoPath = errors.New("badgercache: path is required for persistent database")

// Compile-time checks.
var (
	_ cache.Cache   = (*Cache)(nil)
	_ cache.Counter = (*Cache)(nil)
)

// Config configures the database.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Used in tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives Badger's internal logs. Nil disables them.
	Logger *zap.Logger
}

// Cache is a Badger-backed evaluation cache.
type Cache struct {
	db     *badger.DB
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the database.
func Open(cfg Config) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, ErrNoPath
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.Sugar()})
	} else {
		logger = zap.NewNop()
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return &Cache{db: db, logger: logger}, nil
}

// BatchGet returns the stored sets for keys in one read transaction.
func (c *Cache) BatchGet(ctx context.Context, keys []eval.Key) (map[eval.Key]eval.Set, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, cache.ErrClosed
	}

	out := make(map[eval.Key]eval.Set, len(keys))
	err := c.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := txn.Get(dbKey(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				set, err := eval.Unmarshal(val)
				if err != nil {
					c.logger.Warn("discarding corrupt cache entry", zap.String("fen", k.FEN), zap.Error(err))
					return nil
				}
				out[k] = set
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	return out, nil
}

// BatchPut writes entries with a write batch.
func (c *Cache) BatchPut(ctx context.Context, entries []cache.Entry) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range cache.Storable(entries) {
		data, err := e.Set.Marshal()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Key.FEN, err)
		}
		if err := wb.Set(dbKey(e.Key), data); err != nil {
			return fmt.Errorf("writing cache: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing cache: %w", err)
	}
	return nil
}

// Count iterates the key space.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return 0, cache.ErrClosed
	}

	var n int64
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.closed = true
	return c.db.Close()
}

func dbKey(k eval.Key) []byte {
	return []byte(keyPrefix + k.ID())
}

// badgerLogger routes Badger's logs to zap.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
