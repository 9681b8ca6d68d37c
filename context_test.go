package gamereview

import (
	"reflect"
	"testing"

	"github.com/discochess/gamereview/internal/board"
	"github.com/discochess/gamereview/internal/pgn"
)

func TestBuildMoveContext(t *testing.T) {
	g := parseGame(t, scholarsMate)
	e4, e5 := g.Moves[0], g.Moves[1]

	evals := map[string]Set{
		e4.Before: {cp("e2e4", 50), cp("d2d4", 40)},
		e4.After:  {cp("e7e5", 45)},
		e5.After:  {cp("f1c4", 60)},
	}

	t.Run("white", func(t *testing.T) {
		mc := BuildMoveContext(e4, evals, 2)
		if mc.Move != "e2e4" {
			t.Errorf("Move = %q", mc.Move)
		}
		if mc.Best != valid(50) || mc.Second != valid(40) || mc.Played != valid(45) {
			t.Errorf("scores = %+v %+v %+v", mc.Best, mc.Second, mc.Played)
		}
		if mc.Before != mc.Best {
			t.Errorf("Before = %+v, want Best", mc.Before)
		}
		if mc.MultiPV != 2 || len(mc.Lines) != 2 {
			t.Errorf("MultiPV = %d, lines = %d", mc.MultiPV, len(mc.Lines))
		}
	})

	t.Run("black sees negated scores", func(t *testing.T) {
		mc := BuildMoveContext(e5, evals, 2)
		if mc.Best != valid(-45) || mc.Played != valid(-60) {
			t.Errorf("scores = %+v %+v", mc.Best, mc.Played)
		}
		if mc.Second.Valid {
			t.Errorf("Second = %+v, want invalid", mc.Second)
		}
	})

	t.Run("missing evaluations", func(t *testing.T) {
		mc := BuildMoveContext(g.Moves[3], evals, 2)
		if mc.Best.Valid || mc.Played.Valid {
			t.Errorf("scores = %+v %+v, want invalid", mc.Best, mc.Played)
		}
	})

	t.Run("checkmate needs no engine", func(t *testing.T) {
		mate := g.Moves[6]
		if mate.AfterStatus != board.Checkmate {
			t.Fatalf("AfterStatus = %v", mate.AfterStatus)
		}
		mc := BuildMoveContext(mate, evals, 2)
		want := Score{Value: MateScore, IsMate: true, Valid: true}
		if mc.Played != want {
			t.Errorf("Played = %+v, want %+v", mc.Played, want)
		}
	})
}

func TestBuildMoveContext_Sacrifice(t *testing.T) {
	g := parseGame(t, "1. e4 e5 2. Qh5 Nc6 3. Qxf7+ Kxf7 *")

	hanging := pgn.Move{
		Side:   "w",
		UCI:    "d1d4",
		Before: "4k3/8/8/4p3/8/8/8/3RK3 w - -",
		After:  "4k3/8/8/4p3/3R4/8/8/4K3 b - -",
	}

	tests := []struct {
		name  string
		move  pgn.Move
		evals map[string]Set
		want  float64
	}{
		{"capture gains a pawn", g.Moves[4], map[string]Set{g.Moves[4].After: {cp("e8f7", -800)}}, -1},
		{"recapture gains the queen", g.Moves[5], map[string]Set{}, -9},
		{"quiet move", g.Moves[2], map[string]Set{}, 0},
		{"piece left en prise", hanging, map[string]Set{hanging.After: {cp("e5d4", -500)}}, 0},
		{"unreadable position", pgn.Move{Side: "w", Before: "garbage", After: "garbage"}, map[string]Set{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildMoveContext(tt.move, tt.evals, 1).Sacrifice; got != tt.want {
				t.Errorf("Sacrifice = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildMoveContext_HangingPieceIsNotBrilliant(t *testing.T) {
	c := newTestClassifier(t)
	m := pgn.Move{
		Side:   "w",
		UCI:    "d1d4",
		Before: "4k3/8/8/4p3/8/8/8/3RK3 w - -",
		After:  "4k3/8/8/4p3/3R4/8/8/4K3 b - -",
	}
	evals := map[string]Set{
		m.Before: {cp("d1d4", 0)},
		m.After:  {cp("e5d4", 0)},
	}
	got := c.Classify(BuildMoveContext(m, evals, 1))
	if got.Brilliant || got.Text != "Best" {
		t.Errorf("Classify() = %+v, want Best", got)
	}
}

func TestBuildAnnotationContext(t *testing.T) {
	g := parseGame(t, scholarsMate)
	e4 := g.Moves[0]
	e4.Comment = "[%clk 0:05:00] nice"

	evals := map[string]Set{
		e4.Before: {
			{Move: "e2e4", Centipawns: intp(35), PV: []string{"e2e4", "e7e5", "g1f3", "b8c6"}},
			{Move: "d2d4", Centipawns: intp(20), PV: []string{"d2d4"}},
			{Move: "e7e5", Centipawns: intp(-10)},
		},
		e4.After: {cp("e7e5", 30)},
	}
	c := Classification{Text: "Best"}
	ac := BuildAnnotationContext(e4, &c, evals, AnnotationOptions{Depth: 18, MultiPV: 3, PVMoves: 3})

	if ac.EvalTag != "[%eval 0.30,18]" {
		t.Errorf("EvalTag = %q", ac.EvalTag)
	}
	if ac.Clock != "[%clk 0:05:00]" || ac.UserComment != "nice" {
		t.Errorf("Clock = %q, UserComment = %q", ac.Clock, ac.UserComment)
	}
	want := []EngineLine{
		{SAN: "e4", Eval: "0.35", PV: []string{"e4", "e5", "Nf3"}},
		{SAN: "d4", Eval: "0.20", PV: []string{"d4"}},
		{SAN: "e7e5?", Eval: "-0.10"},
	}
	if !reflect.DeepEqual(ac.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", ac.Lines, want)
	}
	if ac.Classification != &c || ac.Depth != 18 || ac.MultiPV != 3 {
		t.Errorf("context = %+v", ac)
	}
}

func TestBuildAnnotationContext_MateAndMissing(t *testing.T) {
	g := parseGame(t, scholarsMate)
	qh5 := g.Moves[4]

	ac := BuildAnnotationContext(qh5, nil, map[string]Set{qh5.After: {mate("f6", -3)}}, AnnotationOptions{Depth: 20, MultiPV: 1})
	if ac.EvalTag != "[%eval #-3,20]" {
		t.Errorf("EvalTag = %q", ac.EvalTag)
	}
	if ac.Lines != nil {
		t.Errorf("Lines = %+v, want none", ac.Lines)
	}

	ac = BuildAnnotationContext(g.Moves[6], nil, map[string]Set{}, AnnotationOptions{Depth: 20, MultiPV: 1})
	if ac.EvalTag != "" {
		t.Errorf("EvalTag = %q, want empty", ac.EvalTag)
	}
}
