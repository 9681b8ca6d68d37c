package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/gamereview/internal/cache/shardcache"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of a sharded evaluation cache",
	Long: `Verify that all shards of a disk, s3 or gcs cache are valid.

This command checks:
- Each shard can be decompressed
- Each shard contains valid JSONL records
- Records are sorted within each shard
- Each record belongs to the shard it is stored in`,
	RunE: runVerify,
}

var (
	verifyQuick bool
)

func init() {
	verifyCmd.Flags().BoolVar(&verifyQuick, "quick", false, "only check first and last entries in each shard")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	sc, ok := c.(*shardcache.Cache)
	if !ok {
		return fmt.Errorf("verify needs a sharded cache (disk, s3 or gcs), not %s", cfg.CacheBackend)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Verifying %d shards...\n", cfg.Shards)
	rep, err := sc.Verify(cmd.Context(), verifyQuick)
	if err != nil {
		return fmt.Errorf("verifying cache: %w", err)
	}
	for _, p := range rep.Problems {
		fmt.Fprintf(out, "  ERROR: %s\n", p)
	}
	if !rep.OK() {
		return fmt.Errorf("%d problems found", len(rep.Problems))
	}

	fmt.Fprintf(out, "All %d non-empty shards verified successfully (%d records).\n", rep.Shards, rep.Records)
	return nil
}
