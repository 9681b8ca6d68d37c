package gamereview

import (
	"context"
	"fmt"
	"testing"

	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/pgn"
)

func intp(n int) *int { return &n }

func cp(move string, v int) Line { return Line{Move: move, Centipawns: intp(v)} }

func mate(move string, n int) Line { return Line{Move: move, Mate: intp(n)} }

// fakeEngine serves fixed evaluations. Positions without an entry get a
// single 0cp line with an empty move.
type fakeEngine struct {
	id      engine.Identity
	sets    map[string]eval.Set
	invalid map[string]bool
	failOn  string
	cancel  func()

	batches   int
	evaluated []string
}

var _ engine.Engine = (*fakeEngine)(nil)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		id:      engine.Identity{Path: "/opt/stockfish", Name: "Stockfish 16", Version: "16"},
		sets:    make(map[string]eval.Set),
		invalid: make(map[string]bool),
	}
}

func (f *fakeEngine) Identity() engine.Identity { return f.id }

func (f *fakeEngine) EvaluateBatch(ctx context.Context, fens []string, p eval.Params, progress func()) (map[string]eval.Set, error) {
	f.batches++
	out := make(map[string]eval.Set, len(fens))
	for _, fen := range fens {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if fen == f.failOn {
			return out, fmt.Errorf("%w: engine exited", engine.ErrEngine)
		}
		f.evaluated = append(f.evaluated, fen)
		switch {
		case f.invalid[fen]:
			out[fen] = nil
		case f.sets[fen] != nil:
			out[fen] = f.sets[fen]
		default:
			out[fen] = eval.Set{cp("", 0)}
		}
		progress()
		if f.cancel != nil {
			f.cancel()
		}
	}
	return out, nil
}

func (f *fakeEngine) Close() error { return nil }

// recordingSink records progress calls.
type recordingSink struct {
	total    int
	advanced int
	calls    int
	labels   []string
}

func (r *recordingSink) Reset(total int)      { r.total = total; r.advanced = 0; r.calls = 0 }
func (r *recordingSink) Advance(n int)        { r.advanced += n; r.calls++ }
func (r *recordingSink) SetLabel(text string) { r.labels = append(r.labels, text) }

func parseGame(t *testing.T, text string) *pgn.Game {
	t.Helper()
	g, err := pgn.Parse(text)
	if err != nil {
		t.Fatalf("pgn.Parse() error = %v", err)
	}
	return g
}

const scholarsMate = `[Event "Casual"]
[Site "https://lichess.org/AbCdEfGh"]
[White "alice"]
[Black "bob"]
[Result "1-0"]

1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0
`
