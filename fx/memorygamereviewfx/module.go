// Package memorygamereviewfx provides an fx module for an analyzer with an
// in-memory evaluation cache. The engine is supplied by the caller, which
// makes the module useful for testing.
package memorygamereviewfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/cache/memcache"
	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/stats"
	"github.com/discochess/gamereview/internal/stats/logger"
)

// Module provides an analyzer over an in-memory cache.
// Requires an engine.Engine and a *zap.Logger to be provided.
var Module = fx.Module("memorygamereview",
	fx.Provide(
		newStatsCollector,
		newMemCache,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("gamereview.stats"))
}

func newMemCache() *memcache.Cache {
	return memcache.New()
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Engine    engine.Engine
	Logger    *zap.Logger
	Collector stats.Collector
	Cache     *memcache.Cache
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer. The cache is provided on its own
// for test setup.
type Result struct {
	fx.Out

	Analyzer *gamereview.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	a, err := gamereview.New(
		gamereview.WithEngine(p.Engine),
		gamereview.WithCache(p.Cache),
		gamereview.WithStats(p.Collector),
		gamereview.WithLogger(p.Logger.Named("gamereview")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return a.Close()
		},
	})

	return Result{Analyzer: a}, nil
}
