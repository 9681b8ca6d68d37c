package gamereview

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/progress"
	"github.com/discochess/gamereview/internal/stats"
)

var tracer = otel.Tracer("github.com/discochess/gamereview")

// Resolution is the outcome of resolving a set of positions.
type Resolution struct {
	// Evals maps position keys to their evaluation. Positions the engine
	// could not evaluate are absent.
	Evals map[string]Set

	CacheHits       int
	EngineEvaluated int
}

// Provider resolves positions to evaluations, reading the cache first
// and sending only the misses to the engine. New evaluations are written
// back to the cache in one batch.
//
// A Provider is not safe for concurrent use; it owns the engine.
type Provider struct {
	engine   engine.Engine
	cache    cache.Cache
	params   eval.Params
	identity engine.Identity
	progress progress.Sink
	stats    stats.Collector
	logger   *zap.Logger
}

// NewProvider creates a Provider. progress may be nil.
func NewProvider(e engine.Engine, c cache.Cache, p eval.Params, sink progress.Sink, collector stats.Collector, logger *zap.Logger) *Provider {
	if sink == nil {
		sink = progress.Noop{}
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		engine:   e,
		cache:    c,
		params:   p,
		identity: e.Identity(),
		progress: sink,
		stats:    collector,
		logger:   logger,
	}
}

// Key returns the cache key for a position under the provider's settings.
func (p *Provider) Key(position string) eval.Key {
	return eval.NewKey(position, p.params, p.identity.Path, p.identity.Version)
}

// Resolve returns evaluations for positions.
//
// Engine faults are returned wrapped in ErrEngineFailure and cache faults
// in ErrCacheRead or ErrCacheWrite. When the engine stops early, whether
// from a fault or from ctx, whatever it finished is still written to the
// cache and returned with the error.
func (p *Provider) Resolve(ctx context.Context, positions []string) (*Resolution, error) {
	ctx, span := tracer.Start(ctx, "Provider.Resolve",
		trace.WithAttributes(attribute.Int("positions", len(positions))),
	)
	defer span.End()

	res, err := p.resolve(ctx, positions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if res != nil {
		span.SetAttributes(
			attribute.Int("cache_hits", res.CacheHits),
			attribute.Int("engine_evaluated", res.EngineEvaluated),
		)
	}
	return res, err
}

func (p *Provider) resolve(ctx context.Context, positions []string) (*Resolution, error) {
	p.stats.IncCounter(stats.MetricPositions, int64(len(positions)))
	p.progress.Reset(len(positions))

	keys := make([]eval.Key, len(positions))
	for i, pos := range positions {
		keys[i] = p.Key(pos)
	}

	cached, err := p.cache.BatchGet(ctx, keys)
	if err != nil {
		p.stats.IncCounter(stats.MetricCacheErrors, 1)
		return nil, fmt.Errorf("%w: %w", ErrCacheRead, err)
	}

	res := &Resolution{Evals: make(map[string]Set, len(positions))}
	var misses []string
	for i, pos := range positions {
		if set, ok := cached[keys[i]]; ok && set != nil {
			res.Evals[pos] = set
			continue
		}
		misses = append(misses, pos)
	}
	res.CacheHits = len(positions) - len(misses)
	p.stats.IncCounter(stats.MetricCacheHits, int64(res.CacheHits))
	p.stats.IncCounter(stats.MetricCacheMisses, int64(len(misses)))
	for range res.CacheHits {
		p.progress.Advance(1)
	}

	if len(misses) == 0 {
		return res, nil
	}

	p.stats.IncCounter(stats.MetricEngineBatches, 1)
	fresh, engineErr := p.engine.EvaluateBatch(ctx, misses, p.params, func() {
		p.progress.Advance(1)
	})

	entries := make([]cache.Entry, 0, len(fresh))
	for _, pos := range misses {
		set, ok := fresh[pos]
		if !ok {
			continue
		}
		res.EngineEvaluated++
		if set == nil {
			p.logger.Warn("position could not be evaluated", zap.String("fen", pos))
			continue
		}
		res.Evals[pos] = set
		entries = append(entries, cache.Entry{Key: p.Key(pos), Set: set})
	}

	if err := p.store(ctx, entries); err != nil {
		if engineErr != nil {
			return res, errors.Join(p.engineError(engineErr), err)
		}
		return res, err
	}
	if engineErr != nil {
		return res, p.engineError(engineErr)
	}
	return res, nil
}

func (p *Provider) engineError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEngineFailure, err)
}

func (p *Provider) store(ctx context.Context, entries []cache.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	// The batch is written even when ctx is done so finished work is kept.
	if err := p.cache.BatchPut(context.WithoutCancel(ctx), entries); err != nil {
		p.stats.IncCounter(stats.MetricCacheErrors, 1)
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}
	p.stats.IncCounter(stats.MetricCacheWrites, int64(len(entries)))
	return nil
}
