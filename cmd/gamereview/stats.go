package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/cache/shardcache"
	"github.com/discochess/gamereview/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the evaluation cache",
	Long: `Display statistics about the configured evaluation cache including:
- Number of cached positions
- Shard layout and size on disk (disk cache only)`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	c, err := cfg.OpenCache(cmd.Context(), log, nil)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend:        %s\n", cfg.CacheBackend)
	if counter, ok := c.(cache.Counter); ok {
		n, err := counter.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting entries: %w", err)
		}
		fmt.Fprintf(out, "Positions:      %d\n", n)
	}

	if cfg.CacheBackend != config.BackendDisk {
		return nil
	}
	m, err := shardcache.ReadManifest(cfg.CachePath)
	if err != nil {
		return err
	}
	shards, size, err := shardFiles(cfg.CachePath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Directory:      %s\n", cfg.CachePath)
	fmt.Fprintf(out, "Layout:         %d shards, %s, %s\n", m.TotalShards, m.Strategy, m.Compression)
	fmt.Fprintf(out, "Shards written: %d\n", shards)
	fmt.Fprintf(out, "Total size:     %s\n", formatBytes(size))
	return nil
}

// shardFiles counts the shard files of a disk cache and their total size.
func shardFiles(dir string) (int, int64, error) {
	entries, err := os.ReadDir(filepath.Join(dir, "shards"))
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reading shards directory: %w", err)
	}

	var count int
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".shard-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
	}
	return count, total, nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
