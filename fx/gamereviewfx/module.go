// Package gamereviewfx provides an fx module for an analyzer backed by a
// Stockfish process and the configured evaluation cache.
package gamereviewfx

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/config"
	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/progress"
	"github.com/discochess/gamereview/internal/stats"
	"github.com/discochess/gamereview/internal/stats/logger"
)

// Module provides an analyzer, its engine and its cache.
// Requires a config.Config and a *zap.Logger to be provided. A
// progress.Sink may be supplied; it defaults to no output.
var Module = fx.Module("gamereview",
	fx.Provide(
		newStatsCollector,
		newCache,
		newEngine,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("gamereview.stats"))
}

// CacheParams holds dependencies for opening the cache.
type CacheParams struct {
	fx.In

	Config    config.Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

func newCache(p CacheParams) (cache.Cache, error) {
	c, err := p.Config.OpenCache(context.Background(), p.Logger, p.Collector)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c, nil
}

// EngineParams holds dependencies for starting the engine.
type EngineParams struct {
	fx.In

	Config    config.Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

func newEngine(p EngineParams) (engine.Engine, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	e, err := p.Config.OpenEngine(dir, p.Logger, p.Collector)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return e.Close()
		},
	})
	return e, nil
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Config    config.Config
	Engine    engine.Engine
	Cache     cache.Cache
	Progress  progress.Sink `optional:"true"`
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *gamereview.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	a, err := gamereview.New(
		gamereview.WithEngine(p.Engine),
		gamereview.WithCache(p.Cache),
		gamereview.WithDepth(p.Config.Depth),
		gamereview.WithMultiPV(p.Config.MultiPV),
		gamereview.WithPVMoves(p.Config.PVMoves),
		gamereview.WithTargetPlayer(p.Config.Player),
		gamereview.WithProgress(p.Progress),
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
