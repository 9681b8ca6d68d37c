// Package sqlcache stores evaluations in a SQL table through gorm. The
// default dialect is SQLite, a single file next to the analyzed games.
package sqlcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/eval"
)

// ErrInvalidPath is returned for an empty database path.
var ErrInvalidPath = errors.New("sqlcache: empty database path")

// queryChunk bounds the FEN list of a single IN query.
const queryChunk = 500

// Compile-time checks.
var (
	_ cache.Cache   = (*Cache)(nil)
	_ cache.Counter = (*Cache)(nil)
)

// Analysis is one cached evaluation row.
type Analysis struct {
	FEN           string         `gorm:"column:fen;primaryKey"`
	Depth         int            `gorm:"column:analysis_depth;primaryKey"`
	MultiPV       int            `gorm:"column:multipv_count;primaryKey"`
	EnginePath    string         `gorm:"column:stockfish_path_canon;primaryKey"`
	EngineVersion string         `gorm:"column:stockfish_version;primaryKey"`
	Result        datatypes.JSON `gorm:"column:analysis_result_json;not null"`
	Timestamp     time.Time      `gorm:"column:timestamp;autoUpdateTime"`
}

// TableName keeps the table name stable across struct renames.
func (Analysis) TableName() string {
	return "fen_analysis_cache"
}

// Cache is a gorm-backed evaluation cache.
type Cache struct {
	db     *gorm.DB
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates a SQLite cache at path.
func Open(path string, logger *zap.Logger) (*Cache, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite cache %s: %w", path, err)
	}
	c, err := New(db, logger)
	if err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
		return nil, err
	}
	return c, nil
}

// New wraps an open gorm connection and migrates the schema.
func New(db *gorm.DB, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&Analysis{}); err != nil {
		return nil, fmt.Errorf("migrating cache schema: %w", err)
	}
	return &Cache{db: db, logger: logger}, nil
}

// group is the set of keys sharing everything but the FEN.
type group struct {
	depth, multiPV int
	path, version  string
}

// BatchGet returns the stored sets for keys. Rows that fail to decode are
// treated as misses.
func (c *Cache) BatchGet(ctx context.Context, keys []eval.Key) (map[eval.Key]eval.Set, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, cache.ErrClosed
	}

	groups := make(map[group][]string)
	for _, k := range keys {
		g := group{k.Depth, k.MultiPV, k.EnginePath, k.EngineVersion}
		groups[g] = append(groups[g], k.FEN)
	}

	out := make(map[eval.Key]eval.Set, len(keys))
	for g, fens := range groups {
		for start := 0; start < len(fens); start += queryChunk {
			end := min(start+queryChunk, len(fens))

			var rows []Analysis
			err := c.db.WithContext(ctx).
				Where("fen IN ? AND analysis_depth = ? AND multipv_count = ? AND stockfish_path_canon = ? AND stockfish_version = ?",
					fens[start:end], g.depth, g.multiPV, g.path, g.version).
				Find(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("querying cache: %w", err)
			}

			for _, row := range rows {
				set, err := eval.Unmarshal(row.Result)
				if err != nil {
					c.logger.Warn("discarding corrupt cache row", zap.String("fen", row.FEN), zap.Error(err))
					continue
				}
				out[eval.NewKey(row.FEN, eval.Params{Depth: row.Depth, MultiPV: row.MultiPV}, row.EnginePath, row.EngineVersion)] = set
			}
		}
	}
	return out, nil
}

// BatchPut upserts entries in one transaction.
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

	rows := make([]Analysis, 0, len(entries))
	for _, e := range entries {
		data, err := e.Set.Marshal()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Key.FEN, err)
		}
		rows = append(rows, Analysis{
			FEN:           e.Key.FEN,
			Depth:         e.Key.Depth,
			MultiPV:       e.Key.MultiPV,
			EnginePath:    e.Key.EnginePath,
			EngineVersion: e.Key.EngineVersion,
			Result:        datatypes.JSON(data),
		})
	}

	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, queryChunk).Error
	if err != nil {
		return fmt.Errorf("storing %d evaluations: %w", len(rows), err)
	}
	return nil
}

// Count returns the number of rows.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return 0, cache.ErrClosed
	}
	var n int64
	if err := c.db.WithContext(ctx).Model(&Analysis{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting cache rows: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.closed = true

	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
