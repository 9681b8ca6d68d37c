package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/cache/memcache"
	"github.com/discochess/gamereview/internal/cache/shardcache"
	"github.com/discochess/gamereview/internal/cache/sqlcache"
	"github.com/discochess/gamereview/internal/eval"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOCKFISH_PATH", "")
	t.Setenv("GAMEREVIEW_ENGINE", "")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Config{
		Depth:          18,
		MultiPV:        2,
		Threads:        4,
		HashMB:         1024,
		PGNColumns:     80,
		PVMoves:        3,
		ReportPath:     "analysis_summary_report.csv",
		CacheBackend:   BackendSQLite,
		CachePath:      "analysis_cache.db",
		Codec:          "zstd",
		Shards:         1024,
		ShardStrategy:  "material",
		ShardCacheSize: 100,
		LogLevel:       "info",
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("GAMEREVIEW_DEPTH", "22")
	t.Setenv("GAMEREVIEW_CACHE_BACKEND", "Memory")
	t.Setenv("STOCKFISH_PATH", "/usr/games/stockfish")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("depth", 18, "")
	flags.Int("multipv", 2, "")
	if err := flags.Parse([]string{"--multipv=4"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(flags, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Depth != 22 {
		t.Errorf("Depth = %d, want env value 22", cfg.Depth)
	}
	if cfg.MultiPV != 4 {
		t.Errorf("MultiPV = %d, want flag value 4", cfg.MultiPV)
	}
	if cfg.CacheBackend != BackendMemory {
		t.Errorf("CacheBackend = %q", cfg.CacheBackend)
	}
	if cfg.EnginePath != "/usr/games/stockfish" {
		t.Errorf("EnginePath = %q", cfg.EnginePath)
	}

	// A changed flag beats the environment.
	if err := flags.Parse([]string{"--depth=12"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg, err = Load(flags, ""); err != nil || cfg.Depth != 12 {
		t.Errorf("Load() Depth = %d, err = %v, want 12", cfg.Depth, err)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("GAMEREVIEW_PLAYER=DrNykterstein\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GAMEREVIEW_PLAYER") })

	cfg, err := Load(nil, envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Player != "DrNykterstein" {
		t.Errorf("Player = %q", cfg.Player)
	}

	if _, err := Load(nil, filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Load() with missing env file error = %v", err)
	}
}

func validConfig() Config {
	return Config{
		Depth: 18, MultiPV: 2, Threads: 1, HashMB: 16,
		CacheBackend: BackendMemory, Codec: "zstd",
		Shards: 8, ShardStrategy: "fnv", ShardCacheSize: 4,
		LogLevel: "debug",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero depth", func(c *Config) { c.Depth = 0 }},
		{"zero multipv", func(c *Config) { c.MultiPV = 0 }},
		{"negative columns", func(c *Config) { c.PGNColumns = -1 }},
		{"unknown backend", func(c *Config) { c.CacheBackend = "mongo" }},
		{"unknown codec", func(c *Config) { c.Codec = "lz4" }},
		{"unknown level", func(c *Config) { c.LogLevel = "trace" }},
		{"redis without url", func(c *Config) { c.CacheBackend = BackendRedis }},
		{"s3 without bucket", func(c *Config) { c.CacheBackend = BackendS3 }},
		{"gcs without bucket", func(c *Config) { c.CacheBackend = BackendGCS }},
		{"disk without path", func(c *Config) { c.CacheBackend = BackendDisk }},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestFindEngine(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	t.Run("configured", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "sf")
		touch(t, p)
		if got, err := FindEngine(p, ""); err != nil || got != p {
			t.Errorf("FindEngine() = %q, %v", got, err)
		}
		if _, err := FindEngine(p+"-missing", ""); !errors.Is(err, ErrEngineNotFound) {
			t.Errorf("FindEngine() missing error = %v", err)
		}
	})

	t.Run("bundled directory", func(t *testing.T) {
		dir := t.TempDir()
		want := filepath.Join(dir, "stockfish", "stockfish")
		touch(t, want)
		if got, err := FindEngine("", dir); err != nil || got != want {
			t.Errorf("FindEngine() = %q, %v, want %q", got, err, want)
		}
	})

	t.Run("bundled binary", func(t *testing.T) {
		dir := t.TempDir()
		want := filepath.Join(dir, "stockfish")
		touch(t, want)
		if got, err := FindEngine("", dir); err != nil || got != want {
			t.Errorf("FindEngine() = %q, %v, want %q", got, err, want)
		}
	})

	t.Run("nowhere", func(t *testing.T) {
		if _, err := FindEngine("", t.TempDir()); !errors.Is(err, ErrEngineNotFound) {
			t.Errorf("FindEngine() error = %v, want ErrEngineNotFound", err)
		}
	})
}

func TestConfig_OpenCache(t *testing.T) {
	ctx := context.Background()
	key := eval.NewKey("8/8/8/8/8/8/8/K6k w - -", eval.Params{Depth: 18, MultiPV: 2}, "/bin/sf", "16")
	cp := 12

	tests := []struct {
		name    string
		backend string
		check   func(t *testing.T, c cache.Cache)
	}{
		{"memory", BackendMemory, func(t *testing.T, c cache.Cache) {
			if _, ok := c.(*memcache.Cache); !ok {
				t.Errorf("cache is %T", c)
			}
		}},
		{"sqlite", BackendSQLite, func(t *testing.T, c cache.Cache) {
			if _, ok := c.(*sqlcache.Cache); !ok {
				t.Errorf("cache is %T", c)
			}
		}},
		{"disk", BackendDisk, func(t *testing.T, c cache.Cache) {
			if _, ok := c.(*shardcache.Cache); !ok {
				t.Errorf("cache is %T", c)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.CacheBackend = tt.backend
			cfg.CachePath = filepath.Join(t.TempDir(), "cache")

			c, err := cfg.OpenCache(ctx, nil, nil)
			if err != nil {
				t.Fatalf("OpenCache() error = %v", err)
			}
			defer c.Close()
			tt.check(t, c)

			set := eval.Set{{Move: "a1b1", Centipawns: &cp}}
			if err := c.BatchPut(ctx, []cache.Entry{{Key: key, Set: set}}); err != nil {
				t.Fatalf("BatchPut() error = %v", err)
			}
			got, err := c.BatchGet(ctx, []eval.Key{key})
			if err != nil || len(got[key]) != 1 {
				t.Errorf("BatchGet() = %v, %v", got, err)
			}
		})
	}
}

func TestConfig_OpenCache_LayoutMismatch(t *testing.T) {
	cfg := validConfig()
	cfg.CacheBackend = BackendDisk
	cfg.CachePath = t.TempDir()

	c, err := cfg.OpenCache(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	c.Close()

	cfg.Shards = 16
	if _, err := cfg.OpenCache(context.Background(), nil, nil); !errors.Is(err, shardcache.ErrLayoutMismatch) {
		t.Errorf("OpenCache() error = %v, want ErrLayoutMismatch", err)
	}
}
