package gamereview

import (
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/progress"
	"github.com/discochess/gamereview/internal/stats"
)

// Defaults for analysis settings.
const (
	DefaultDepth   = 18
	DefaultMultiPV = 2
	DefaultPVMoves = 3
)

// Option configures an Analyzer.
type Option interface {
	apply(*options)
}

// options holds the analyzer configuration.
type options struct {
	engine   engine.Engine
	cache    cache.Cache
	criteria Criteria
	depth    int
	multiPV  int
	pvMoves  int
	target   string
	progress progress.Sink
	stats    stats.Collector
	logger   *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		criteria: DefaultCriteria(),
		depth:    DefaultDepth,
		multiPV:  DefaultMultiPV,
		pvMoves:  DefaultPVMoves,
		progress: progress.Noop{},
		stats:    stats.NewNoop(),
		logger:   zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithEngine sets the engine used for cache misses.
func WithEngine(e engine.Engine) Option {
	return optionFunc(func(o *options) {
		o.engine = e
	})
}

// WithCache sets the evaluation cache.
func WithCache(c cache.Cache) Option {
	return optionFunc(func(o *options) {
		o.cache = c
	})
}

// WithCriteria sets the classification criteria.
// If not set, DefaultCriteria is used.
func WithCriteria(c Criteria) Option {
	return optionFunc(func(o *options) {
		o.criteria = c
	})
}

// WithDepth sets the engine search depth. Default is 18.
func WithDepth(depth int) Option {
	return optionFunc(func(o *options) {
		o.depth = depth
	})
}

// WithMultiPV sets how many lines the engine reports per position.
// Great moves are only detected with 2 or more. Default is 2.
func WithMultiPV(n int) Option {
	return optionFunc(func(o *options) {
		o.multiPV = n
	})
}

// WithPVMoves sets how many principal variation moves annotations show.
// Default is 3.
func WithPVMoves(n int) Option {
	return optionFunc(func(o *options) {
		o.pvMoves = n
	})
}

// WithTargetPlayer sets the player whose games are summarized.
func WithTargetPlayer(name string) Option {
	return optionFunc(func(o *options) {
		o.target = name
	})
}

// WithProgress sets the progress sink.
// If not set, progress is discarded.
func WithProgress(p progress.Sink) Option {
	return optionFunc(func(o *options) {
		o.progress = p
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
