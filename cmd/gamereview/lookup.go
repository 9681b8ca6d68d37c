package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/board"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/fen"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [FEN]",
	Short: "Show the cached evaluation of a position",
	Long: `Show the engine lines cached for a position at the configured depth
and MultiPV.

Cache entries are keyed by the engine binary and version, so the engine
is started briefly to identify itself. Nothing is evaluated.

Examples:
  # After 1.e4
  gamereview lookup "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3"

  # Lines cached at depth 22
  gamereview lookup -d 22 "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

var (
	outputJSON bool
	showTiming bool
)

func init() {
	lookupCmd.Flags().BoolVar(&outputJSON, "json", false, "output result as JSON")
	lookupCmd.Flags().BoolVar(&showTiming, "timing", false, "show lookup timing")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	key, err := fen.Normalize(args[0])
	if err != nil {
		return err
	}

	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx := cmd.Context()

	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	eng, err := cfg.OpenEngine(dir, log, nil)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	id := eng.Identity()
	eng.Close()

	c, err := cfg.OpenCache(ctx, log, nil)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	k := eval.NewKey(key, eval.Params{Depth: cfg.Depth, MultiPV: cfg.MultiPV}, id.Path, id.Version)
	start := time.Now()
	found, err := c.BatchGet(ctx, []eval.Key{k})
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	elapsed := time.Since(start)

	set, ok := found[k]
	if !ok {
		return fmt.Errorf("position not in cache for %s at depth %d, multipv %d", id.ShortName(), cfg.Depth, cfg.MultiPV)
	}

	if outputJSON {
		return printSetJSON(cmd, key, set, elapsed)
	}
	printSetText(cmd, key, set, elapsed, cfg.PVMoves)
	return nil
}

func printSetText(cmd *cobra.Command, key string, set eval.Set, elapsed time.Duration, pvMoves int) {
	out := cmd.OutOrStdout()
	pos, _ := board.Decode(key)
	fmt.Fprintf(out, "FEN:   %s\n", key)
	if side, err := fen.SideToMove(key); err == nil {
		name := "White"
		if side == gamereview.Black {
			name = "Black"
		}
		fmt.Fprintf(out, "Move:  %s (scores are White-relative)\n", name)
	}
	if len(set) == 0 {
		fmt.Fprintln(out, "No legal moves.")
	}
	for i := range set {
		l := &set[i]
		move := l.Move
		pv := l.PV
		if pos != nil {
			if san, err := board.SAN(pos, l.Move); err == nil {
				move = san
			}
			pv = board.Variation(pos, l.PV, pvMoves)
		}
		score := gamereview.NormalizeScore(l, gamereview.White)
		fmt.Fprintf(out, "PV %d:  %s (%s) %s\n", i+1, move, score, strings.Join(pv, " "))
	}
	if showTiming {
		fmt.Fprintf(out, "Time:  %s\n", elapsed)
	}
}

func printSetJSON(cmd *cobra.Command, key string, set eval.Set, elapsed time.Duration) error {
	result := struct {
		FEN       string   `json:"fen"`
		Lines     eval.Set `json:"lines"`
		ElapsedMS *int64   `json:"elapsed_ms,omitempty"`
	}{FEN: key, Lines: set}
	if showTiming {
		ms := elapsed.Milliseconds()
		result.ElapsedMS = &ms
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(result)
}
