//go:build e2e

package gamereview_test

import (
	"context"
	"encoding/csv"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/cache/memcache"
	"github.com/discochess/gamereview/internal/config"
	"github.com/discochess/gamereview/internal/engine/uci"
	"github.com/discochess/gamereview/internal/pgn"
)

const e2eGames = `[Event "Casual"]
[Site "https://lichess.org/e2eGame01"]
[White "alice"]
[Black "bob"]
[Result "1-0"]

1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0

[Event "Casual"]
[Site "https://lichess.org/e2eGame02"]
[White "bob"]
[Black "alice"]
[Result "*"]

1. d4 d5 2. c4 e6 3. Nc3 Nf6 *
`

func findStockfish(t *testing.T) string {
	t.Helper()
	wd, _ := os.Getwd()
	path, err := config.FindEngine(os.Getenv("STOCKFISH_PATH"), wd)
	if err != nil {
		t.Skip("Skipping: stockfish not found")
	}
	return path
}

func TestE2E_AnalyzeGame(t *testing.T) {
	eng, err := uci.New(findStockfish(t), uci.WithThreads(1), uci.WithHashMB(16))
	if err != nil {
		t.Fatalf("Error starting engine: %v", err)
	}
	defer eng.Close()

	a, err := gamereview.New(
		gamereview.WithEngine(eng),
		gamereview.WithCache(memcache.New()),
		gamereview.WithDepth(10),
	)
	if err != nil {
		t.Fatalf("Error creating analyzer: %v", err)
	}
	defer a.Close()

	g, err := pgn.Parse(e2eGames[:strings.Index(e2eGames, "\n\n[Event")])
	if err != nil {
		t.Fatalf("Error parsing game: %v", err)
	}

	start := time.Now()
	res, err := a.AnalyzeGame(context.Background(), g)
	if err != nil {
		t.Fatalf("Error analyzing: %v", err)
	}
	t.Logf("Analyzed %d moves in %v (%d evaluations)", len(g.Moves), time.Since(start), res.EngineEvaluated)

	mate := res.Classifications[len(g.Moves)-1]
	if mate.Label() != gamereview.LabelBest && mate.Label() != gamereview.LabelGreat && mate.Label() != gamereview.LabelBrilliant {
		t.Errorf("Qxf7# classified %q", mate.Text)
	}
	if !strings.Contains(res.Annotations[len(g.Moves)-1], "[Analyse SF") {
		t.Errorf("annotation = %q", res.Annotations[len(g.Moves)-1])
	}
}

func TestE2E_CLI(t *testing.T) {
	sf := findStockfish(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "games.pgn")
	output := filepath.Join(dir, "annotated.pgn")
	report := filepath.Join(dir, "report.csv")
	if err := os.WriteFile(input, []byte(e2eGames), 0o644); err != nil {
		t.Fatal(err)
	}

	run := func() {
		cmd := exec.Command("go", "run", "./cmd/gamereview", "analyze", input,
			"-o", output, "-p", "alice", "-r", report,
			"--engine", sf, "--depth", "8", "--threads", "1", "--hash", "16",
			"--cache-backend", "disk", "--cache-path", filepath.Join(dir, "cache"), "--shards", "16",
			"--env-file", "",
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			t.Fatalf("Error running analyze: %v", err)
		}
	}

	run()
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "[WhiteACPL "); n != 2 {
		t.Errorf("output has %d analyzed games, want 2", n)
	}

	f, err := os.Open(report)
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil || len(records) != 3 {
		t.Fatalf("report records = %d, err = %v", len(records), err)
	}

	// The second run finds both games in the output and appends nothing.
	run()
	again, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(data) {
		t.Errorf("second run changed the output: %d bytes, was %d", len(again), len(data))
	}
}
