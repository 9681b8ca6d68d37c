// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the analyzer.
const (
	// Analysis provider metrics.
	MetricPositions     = "gamereview_positions_total"
	MetricCacheHits     = "gamereview_cache_hits_total"
	MetricCacheMisses   = "gamereview_cache_misses_total"
	MetricCacheErrors   = "gamereview_cache_errors_total"
	MetricCacheWrites   = "gamereview_cache_writes_total"
	MetricShardFetches  = "gamereview_shard_fetches_total"
	MetricEngineBatches = "gamereview_engine_batches_total"

	// Engine metrics.
	MetricEngineSeconds  = "gamereview_engine_eval_seconds"
	MetricEngineFailures = "gamereview_engine_failures_total"

	// Run metrics.
	MetricGamesRead     = "gamereview_games_read_total"
	MetricGamesAnalyzed = "gamereview_games_analyzed_total"
	MetricGamesSkipped  = "gamereview_games_skipped_total"
	MetricGamesFailed   = "gamereview_games_failed_total"
	MetricGameSeconds   = "gamereview_game_seconds"

	// Shard store cache metrics.
	MetricStoreCacheHits   = "gamereview_store_cache_hits_total"
	MetricStoreCacheMisses = "gamereview_store_cache_misses_total"
	MetricStoreCacheSize   = "gamereview_store_cache_size"
)

// Help describes each metric name. Unknown names use the name itself.
var Help = map[string]string{
	MetricPositions:        "Positions requested from the analysis provider.",
	MetricCacheHits:        "Positions served from the evaluation cache.",
	MetricCacheMisses:      "Positions missing from the evaluation cache.",
	MetricCacheErrors:      "Failed evaluation cache reads or writes.",
	MetricCacheWrites:      "Evaluations written back to the cache.",
	MetricShardFetches:     "Shards read from the backing store.",
	MetricEngineBatches:    "Batches sent to the engine.",
	MetricEngineSeconds:    "Engine time per position in seconds.",
	MetricEngineFailures:   "Engine process failures.",
	MetricGamesRead:        "Games read from the input.",
	MetricGamesAnalyzed:    "Games analyzed and written.",
	MetricGamesSkipped:     "Games skipped before analysis.",
	MetricGamesFailed:      "Games that failed analysis.",
	MetricGameSeconds:      "Wall time per analyzed game in seconds.",
	MetricStoreCacheHits:   "Shard reads served from the in-process cache.",
	MetricStoreCacheMisses: "Shard reads that went to the backend.",
	MetricStoreCacheSize:   "Shards held in the in-process cache.",
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
