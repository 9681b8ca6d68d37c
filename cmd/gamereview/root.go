package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/config"
	"github.com/discochess/gamereview/internal/logging"
)

var (
	// Global flags.
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "gamereview",
	Short: "Annotate chess games with Stockfish move classifications",
	Long: `Gamereview analyzes chess games from a PGN file with Stockfish,
classifies every move by centipawn loss (Best through Blunder, plus
Brilliant and Great moves), and writes the games back out with
annotations and an optional per-player CSV report.

Engine evaluations are cached per position, so re-running a file or
analyzing games that share positions does not repeat engine work.

Every flag can also be set through the environment with the GAMEREVIEW_
prefix, e.g. GAMEREVIEW_CACHE_BACKEND=badger. STOCKFISH_PATH names the
engine binary.

Examples:
  # Analyze a file, summarizing one player's games
  gamereview analyze games.pgn -o annotated.pgn -p DrNykterstein

  # Look up cached lines for a position
  gamereview lookup "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"

  # Show cache statistics
  gamereview stats`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-file", "", "also write JSON logs to this file")

	pf.String("engine", "", "path to the Stockfish binary (default: discovered)")
	pf.IntP("depth", "d", 18, "engine search depth")
	pf.Int("multipv", 2, "number of engine lines per position")
	pf.Int("threads", 4, "engine threads")
	pf.Int("hash", 1024, "engine hash size in MB")

	pf.String("cache-backend", config.BackendSQLite, "evaluation cache: sqlite, badger, redis, disk, s3, gcs or memory")
	pf.String("cache-path", "analysis_cache.db", "cache file (sqlite) or directory (badger, disk)")
	pf.String("redis-url", "", "redis URL for the redis cache")
	pf.String("bucket", "", "bucket for the s3 and gcs caches")
	pf.String("bucket-prefix", "", "object key prefix for the s3 and gcs caches")
	pf.String("region", "", "s3 region")
	pf.String("endpoint", "", "s3-compatible endpoint URL")
	pf.String("codec", "zstd", "shard compression: zstd, gzip or none")
	pf.Int("shards", 1024, "number of shards for disk, s3 and gcs caches")
	pf.String("shard-strategy", "material", "shard strategy: material or fnv")
	pf.Int("shard-cache-size", 100, "shards kept in memory")
}

// setup loads the configuration for cmd and builds its logger.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, func() error, error) {
	cfg, err := config.Load(cmd.Flags(), envFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, closeLog, err := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, closeLog, nil
}
