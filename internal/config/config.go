// Package config loads the gamereview CLI configuration from flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GAMEREVIEW"

// Cache backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendDisk   = "disk"
	BackendS3     = "s3"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// ErrEngineNotFound is returned when no Stockfish binary can be located.
var ErrEngineNotFound = errors.New("config: stockfish executable not found")

// ErrInvalid is returned when the loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the resolved CLI configuration.
type Config struct {
	// EnginePath is the Stockfish binary. Empty means discover it.
	EnginePath string

	Depth      int `validate:"gte=1"`
	MultiPV    int `validate:"gte=1"`
	Threads    int `validate:"gte=1"`
	HashMB     int `validate:"gte=1"`
	PGNColumns int `validate:"gte=0"`
	PVMoves    int `validate:"gte=0"`

	Player     string
	ReportPath string

	CacheBackend   string `validate:"oneof=sqlite badger redis disk s3 gcs memory"`
	CachePath      string
	RedisURL       string `validate:"required_if=CacheBackend redis"`
	Bucket         string
	BucketPrefix   string
	Region         string
	Endpoint       string
	Codec          string `validate:"oneof=zstd gzip none"`
	Shards         int    `validate:"gte=1"`
	ShardStrategy  string `validate:"oneof=material fnv"`
	ShardCacheSize int    `validate:"gte=1"`

	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFile     string
	MetricsAddr string
}

var validate = validator.New()

// Validate checks field ranges and backend-specific requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.CacheBackend {
	case BackendS3, BackendGCS:
		if c.Bucket == "" {
			return fmt.Errorf("%w: %s cache needs a bucket", ErrInvalid, c.CacheBackend)
		}
	case BackendSQLite, BackendBadger, BackendDisk:
		if c.CachePath == "" {
			return fmt.Errorf("%w: %s cache needs a path", ErrInvalid, c.CacheBackend)
		}
	}
	return nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("depth", 18)
	v.SetDefault("multipv", 2)
	v.SetDefault("threads", 4)
	v.SetDefault("hash", 1024)
	v.SetDefault("pgn-columns", 80)
	v.SetDefault("pv-moves", 3)
	v.SetDefault("report", "analysis_summary_report.csv")
	v.SetDefault("cache-backend", BackendSQLite)
	v.SetDefault("cache-path", "analysis_cache.db")
	v.SetDefault("codec", "zstd")
	v.SetDefault("shards", 1024)
	v.SetDefault("shard-strategy", "material")
	v.SetDefault("shard-cache-size", 100)
	v.SetDefault("log-level", "info")
}

// Load reads envFile if it exists, binds flags and environment variables
// into a fresh viper instance and returns the validated configuration.
// Flag names double as keys: --cache-backend is GAMEREVIEW_CACHE_BACKEND.
func Load(flags *pflag.FlagSet, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	if err := v.BindEnv("engine", EnvPrefix+"_ENGINE", "STOCKFISH_PATH"); err != nil {
		return Config{}, fmt.Errorf("binding engine env: %w", err)
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("binding flags: %w", err)
		}
	}

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromViper copies the keys of v into a Config without validating it.
func FromViper(v *viper.Viper) Config {
	return Config{
		EnginePath:     v.GetString("engine"),
		Depth:          v.GetInt("depth"),
		MultiPV:        v.GetInt("multipv"),
		Threads:        v.GetInt("threads"),
		HashMB:         v.GetInt("hash"),
		PGNColumns:     v.GetInt("pgn-columns"),
		PVMoves:        v.GetInt("pv-moves"),
		Player:         v.GetString("player"),
		ReportPath:     v.GetString("report"),
		CacheBackend:   strings.ToLower(v.GetString("cache-backend")),
		CachePath:      v.GetString("cache-path"),
		RedisURL:       v.GetString("redis-url"),
		Bucket:         v.GetString("bucket"),
		BucketPrefix:   v.GetString("bucket-prefix"),
		Region:         v.GetString("region"),
		Endpoint:       v.GetString("endpoint"),
		Codec:          strings.ToLower(v.GetString("codec")),
		Shards:         v.GetInt("shards"),
		ShardStrategy:  strings.ToLower(v.GetString("shard-strategy")),
		ShardCacheSize: v.GetInt("shard-cache-size"),
		LogLevel:       strings.ToLower(v.GetString("log-level")),
		LogFile:        v.GetString("log-file"),
		MetricsAddr:    v.GetString("metrics-addr"),
	}
}

// FindEngine locates the Stockfish binary. A configured path wins; then
// stockfish/stockfish and stockfish under dir; then $PATH.
func FindEngine(configured, dir string) (string, error) {
	if configured != "" {
		if isFile(configured) {
			return configured, nil
		}
		return "", fmt.Errorf("%w: %s", ErrEngineNotFound, configured)
	}
	for _, p := range []string{
		filepath.Join(dir, "stockfish", "stockfish"),
		filepath.Join(dir, "stockfish"),
	} {
		if isFile(p) {
			return p, nil
		}
	}
	if p, err := exec.LookPath("stockfish"); err == nil {
		return p, nil
	}
	return "", ErrEngineNotFound
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
