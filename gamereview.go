// Package gamereview analyzes chess games with a UCI engine, classifies
// every move by centipawn loss and annotates the games.
//
// Evaluations are cached per position, so re-analyzing a game, or any
// game reaching the same positions, does not touch the engine again.
//
// Example usage:
//
//	eng, err := uci.New("/usr/local/bin/stockfish")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	a, err := gamereview.New(
//	    gamereview.WithEngine(eng),
//	    gamereview.WithCache(memcache.New()),
//	    gamereview.WithDepth(18),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := a.AnalyzeGame(ctx, game)
package gamereview

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/pgn"
	"github.com/discochess/gamereview/internal/progress"
	"github.com/discochess/gamereview/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoEngine indicates no engine was provided.
	ErrNoEngine = errors.New("gamereview: no engine provided")

	// ErrNoCache indicates no cache was provided.
	ErrNoCache = errors.New("gamereview: no cache provided")

	// ErrClosed indicates the analyzer has been closed.
	ErrClosed = errors.New("gamereview: analyzer closed")

	// ErrEngineFailure indicates the engine failed while resolving a game.
	ErrEngineFailure = errors.New("gamereview: engine failure")

	// ErrCacheRead indicates the cache could not be read.
	ErrCacheRead = errors.New("gamereview: cache read failed")

	// ErrCacheWrite indicates new evaluations could not be stored.
	ErrCacheWrite = errors.New("gamereview: cache write failed")

	// ErrInvalidSettings indicates out of range analysis settings.
	ErrInvalidSettings = errors.New("gamereview: invalid settings")
)

// Analyzer classifies and annotates games.
// An Analyzer is not safe for concurrent use because it owns the engine.
type Analyzer struct {
	engine     engine.Engine
	cache      cache.Cache
	provider   *Provider
	classifier *Classifier
	annotator  *Annotator
	params     eval.Params
	pvMoves    int
	target     string
	progress   progress.Sink
	stats      stats.Collector
	logger     *zap.Logger
	closed     atomic.Bool
}

// New creates an Analyzer with the given options. An engine and a cache
// are required.
func New(opts ...Option) (*Analyzer, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.engine == nil {
		return nil, ErrNoEngine
	}
	if cfg.cache == nil {
		return nil, ErrNoCache
	}
	if cfg.progress == nil {
		cfg.progress = progress.Noop{}
	}
	if cfg.depth < 1 || cfg.multiPV < 1 || cfg.pvMoves < 0 {
		return nil, fmt.Errorf("%w: depth %d, multipv %d, pv moves %d",
			ErrInvalidSettings, cfg.depth, cfg.multiPV, cfg.pvMoves)
	}

	classifier, err := NewClassifier(cfg.criteria)
	if err != nil {
		return nil, err
	}

	params := eval.Params{Depth: cfg.depth, MultiPV: cfg.multiPV}
	id := cfg.engine.Identity()
	a := &Analyzer{
		engine:     cfg.engine,
		cache:      cfg.cache,
		provider:   NewProvider(cfg.engine, cfg.cache, params, cfg.progress, cfg.stats, cfg.logger.Named("provider")),
		classifier: classifier,
		annotator:  NewAnnotator(id.ShortName()),
		params:     params,
		pvMoves:    cfg.pvMoves,
		target:     cfg.target,
		progress:   cfg.progress,
		stats:      cfg.stats,
		logger:     cfg.logger,
	}

	a.logger.Debug("analyzer initialized",
		zap.String("engine", id.Name),
		zap.String("engineVersion", id.Version),
		zap.Int("depth", params.Depth),
		zap.Int("multiPV", params.MultiPV),
	)
	return a, nil
}

// GameResult is the analysis of one game.
type GameResult struct {
	ID   string
	Game *pgn.Game

	// Classifications has one entry per move, in game order.
	Classifications []Classification

	// Annotations maps move index to the comment for that move.
	Annotations map[int]string

	// Headers are added to the game on export.
	Headers []pgn.Tag

	// Summary is nil unless the target player played the game.
	Summary *GameSummary

	CacheHits       int
	EngineEvaluated int
}

// AnalyzeGame resolves every position of g, then classifies and
// annotates its moves in order. Resolution faults are returned wrapped
// in ErrEngineFailure, ErrCacheRead or ErrCacheWrite, together with a
// result carrying only the resolution counts when any are known.
func (a *Analyzer) AnalyzeGame(ctx context.Context, g *pgn.Game) (*GameResult, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	id := pgn.GameID(g.Headers())
	ctx, span := tracer.Start(ctx, "Analyzer.AnalyzeGame",
		trace.WithAttributes(
			attribute.String("game_id", id),
			attribute.Int("moves", len(g.Moves)),
		),
	)
	defer span.End()

	start := time.Now()
	a.progress.SetLabel(gameLabel(id, g))

	res, err := a.provider.Resolve(ctx, PlanPositions(g))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var partial *GameResult
		if res != nil {
			partial = &GameResult{ID: id, Game: g, CacheHits: res.CacheHits, EngineEvaluated: res.EngineEvaluated}
		}
		return partial, fmt.Errorf("resolving game %s: %w", id, err)
	}

	out := &GameResult{
		ID:              id,
		Game:            g,
		Classifications: make([]Classification, len(g.Moves)),
		Annotations:     make(map[int]string, len(g.Moves)),
		CacheHits:       res.CacheHits,
		EngineEvaluated: res.EngineEvaluated,
	}
	opts := AnnotationOptions{Depth: a.params.Depth, MultiPV: a.params.MultiPV, PVMoves: a.pvMoves}
	for i, m := range g.Moves {
		c := a.classifier.Classify(BuildMoveContext(m, res.Evals, a.params.MultiPV))
		out.Classifications[i] = c
		out.Annotations[m.Index] = a.annotator.Comment(BuildAnnotationContext(m, &c, res.Evals, opts))
	}

	out.Summary = BuildSummary(g, id, a.target, out.Classifications)
	white, black := SideACPL(g.Moves, out.Classifications)
	out.Headers = []pgn.Tag{
		{Key: "WhiteACPL", Value: white},
		{Key: "BlackACPL", Value: black},
	}
	if out.Summary != nil {
		for _, t := range out.Headers {
			out.Summary.Headers[t.Key] = t.Value
		}
	}

	a.stats.ObserveHistogram(stats.MetricGameSeconds, time.Since(start).Seconds())
	return out, nil
}

// Close marks the analyzer closed. The engine and the cache belong to the
// caller and stay open.
func (a *Analyzer) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

// Classifier returns the classifier used by the analyzer.
func (a *Analyzer) Classifier() *Classifier {
	return a.classifier
}

// Params returns the search parameters used for every position.
func (a *Analyzer) Params() eval.Params {
	return a.params
}

func gameLabel(id string, g *pgn.Game) string {
	if id != "" {
		return id
	}
	return g.Tag("White") + " vs " + g.Tag("Black")
}
