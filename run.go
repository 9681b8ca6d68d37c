package gamereview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/pgn"
	"github.com/discochess/gamereview/internal/stats"
)

// Reasons a game is skipped without analysis.
const (
	SkipAlreadyProcessed = "already_processed"
	SkipNoMoves          = "no_moves"
)

// RunStats summarizes a run.
type RunStats struct {
	RunID string

	GamesRead     int
	GamesAnalyzed int
	GamesFailed   int

	// Skipped counts skipped games by reason.
	Skipped map[string]int

	CacheHits       int
	EngineEvaluated int

	// Summaries holds one entry per game the target player played.
	Summaries []*GameSummary

	Duration time.Duration
}

// GamesSkipped returns the total number of skipped games.
func (s *RunStats) GamesSkipped() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

// Log writes the run summary.
func (s *RunStats) Log(logger *zap.Logger) {
	logger.Info("analysis run finished",
		zap.String("runID", s.RunID),
		zap.Int("gamesRead", s.GamesRead),
		zap.Int("gamesAnalyzed", s.GamesAnalyzed),
		zap.Int("gamesSkipped", s.GamesSkipped()),
		zap.Int("skippedAlreadyProcessed", s.Skipped[SkipAlreadyProcessed]),
		zap.Int("skippedNoMoves", s.Skipped[SkipNoMoves]),
		zap.Int("gamesFailed", s.GamesFailed),
		zap.Int("cacheHits", s.CacheHits),
		zap.Int("engineEvaluated", s.EngineEvaluated),
		zap.Int("gamesSummarized", len(s.Summaries)),
		zap.Duration("duration", s.Duration),
	)
}

// Run analyzes every game from r and writes the annotated games to w.
// Games whose id is in processed are skipped, so an interrupted run can
// resume against its own output.
//
// A game that fails to resolve is logged, counted and skipped; the cache
// hits and engine evaluations it made are still counted. Read and
// write errors end the run. Cancellation is checked between games; the
// stats so far are returned with ctx.Err().
func (a *Analyzer) Run(ctx context.Context, r *pgn.Reader, w *pgn.Writer, processed map[string]struct{}) (*RunStats, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	rs := &RunStats{
		RunID:   uuid.NewString(),
		Skipped: make(map[string]int),
	}
	logger := a.logger.With(zap.String("runID", rs.RunID))
	logger.Info("analysis run started",
		zap.Int("depth", a.params.Depth),
		zap.Int("multiPV", a.params.MultiPV),
		zap.Int("alreadyProcessed", len(processed)),
	)
	defer func() {
		rs.Duration = time.Since(start)
	}()

	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("analysis run interrupted", zap.Error(err))
			return rs, err
		}

		g, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rs, nil
		}
		if err != nil {
			return rs, fmt.Errorf("reading games: %w", err)
		}
		rs.GamesRead++
		a.stats.IncCounter(stats.MetricGamesRead, 1)

		id := pgn.GameID(g.Headers())
		if _, ok := processed[id]; ok && id != "" {
			a.skip(rs, SkipAlreadyProcessed)
			continue
		}
		if len(g.Moves) == 0 {
			logger.Info("game has no moves", zap.String("gameID", id))
			a.skip(rs, SkipNoMoves)
			continue
		}

		res, err := a.AnalyzeGame(ctx, g)
		if res != nil {
			rs.CacheHits += res.CacheHits
			rs.EngineEvaluated += res.EngineEvaluated
		}
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("analysis run interrupted", zap.String("gameID", id), zap.Error(err))
				return rs, ctx.Err()
			}
			rs.GamesFailed++
			a.stats.IncCounter(stats.MetricGamesFailed, 1)
			logger.Error("skipping game", zap.String("gameID", id), zap.Error(err))
			continue
		}

		if err := w.WriteGame(g, res.Annotations, res.Headers); err != nil {
			return rs, fmt.Errorf("writing game %s: %w", id, err)
		}
		rs.GamesAnalyzed++
		a.stats.IncCounter(stats.MetricGamesAnalyzed, 1)
		if res.Summary != nil {
			rs.Summaries = append(rs.Summaries, res.Summary)
		}
	}
}

func (a *Analyzer) skip(rs *RunStats, reason string) {
	rs.Skipped[reason]++
	a.stats.IncCounter(stats.MetricGamesSkipped, 1)
}
