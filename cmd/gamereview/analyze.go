package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/pgn"
	"github.com/discochess/gamereview/internal/progress"
	"github.com/discochess/gamereview/internal/stats"
	"github.com/discochess/gamereview/internal/stats/logger"
	"github.com/discochess/gamereview/internal/stats/prometheus"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze INPUT",
	Short: "Analyze and annotate the games of a PGN file",
	Long: `Analyze every game in INPUT and append the annotated games to the
output file.

Games already present in the output file are skipped, so an interrupted
run picks up where it stopped. Interrupting with Ctrl-C finishes the
current game's write and exits cleanly.

With --player, the games played by that player are summarized into a
CSV report with accuracy, average centipawn loss and move counts.

Examples:
  gamereview analyze games.pgn -o annotated.pgn
  gamereview analyze games.pgn -o annotated.pgn -p DrNykterstein -r report.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var outputPath string

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&outputPath, "output", "o", "", "annotated PGN output file (appended to)")
	f.StringP("player", "p", "", "player to summarize in the report")
	f.StringP("report", "r", "analysis_summary_report.csv", "CSV report file")
	f.Int("pgn-columns", 80, "wrap movetext at this width (0 disables)")
	f.Int("pv-moves", 3, "principal variation moves in comments")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	_ = analyzeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector stats.Collector
	if cfg.MetricsAddr != "" {
		registry := prom.NewRegistry()
		collector = prometheus.New(registry)
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	} else {
		lc := logger.New(log.Named("stats"))
		defer lc.Flush()
		collector = lc
	}

	input, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer input.Close()

	processed, appending, err := readProcessed(outputPath)
	if err != nil {
		return err
	}
	if len(processed) > 0 {
		log.Info("resuming", zap.String("output", outputPath), zap.Int("processedGames", len(processed)))
	}

	c, err := cfg.OpenCache(ctx, log, collector)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	eng, err := cfg.OpenEngine(dir, log, collector)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer eng.Close()

	bar := progress.NewTerminal(cmd.ErrOrStderr())
	a, err := gamereview.New(
		gamereview.WithEngine(eng),
		gamereview.WithCache(c),
		gamereview.WithDepth(cfg.Depth),
		gamereview.WithMultiPV(cfg.MultiPV),
		gamereview.WithPVMoves(cfg.PVMoves),
		gamereview.WithTargetPlayer(cfg.Player),
		gamereview.WithProgress(bar),
		gamereview.WithStats(collector),
		gamereview.WithLogger(log.Named("gamereview")),
	)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}
	defer a.Close()

	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer out.Close()

	rs, runErr := a.Run(ctx, pgn.NewReader(input, log.Named("pgn")), pgn.NewWriter(out, cfg.PGNColumns, appending), processed)
	bar.Finish()
	if rs != nil {
		rs.Log(log)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		log.Warn("analysis interrupted; rerun to resume")
	}

	if cfg.Player != "" && rs != nil {
		if err := writeReport(cfg.ReportPath, rs.Summaries, log); err != nil {
			return err
		}
	}
	return nil
}

// readProcessed returns the ids of the games already in the output file
// and whether the file holds anything.
func readProcessed(path string) (map[string]struct{}, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening output: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("stat output: %w", err)
	}
	ids, err := pgn.ProcessedIDs(f)
	if err != nil {
		return nil, false, err
	}
	return ids, info.Size() > 0, nil
}

func writeReport(path string, summaries []*gamereview.GameSummary, log *zap.Logger) error {
	if len(summaries) == 0 {
		log.Info("no games of the target player analyzed; report not written")
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	rows, err := gamereview.WriteReport(f, summaries)
	if err != nil {
		return err
	}
	log.Info("report written", zap.String("path", path), zap.Int("games", rows))
	return f.Close()
}
