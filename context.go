package gamereview

import (
	"fmt"
	"math"

	"github.com/discochess/gamereview/internal/board"
	"github.com/discochess/gamereview/internal/fen"
	"github.com/discochess/gamereview/internal/pgn"
)

// BuildMoveContext assembles the classifier input for m from the resolved
// evaluations. Positions missing from evals leave the matching scores
// invalid.
//
// A move that ends the game on the board is scored without the engine:
// checkmate is worth MateScore to the mover and stalemate is 0.
func BuildMoveContext(m pgn.Move, evals map[string]Set, multiPV int) MoveContext {
	before := evals[m.Before]
	after := evals[m.After]

	mc := MoveContext{
		Move:      m.UCI,
		Best:      NormalizeScore(before.At(0), m.Side),
		Second:    NormalizeScore(before.At(1), m.Side),
		Played:    NormalizeScore(after.At(0), m.Side),
		Lines:     before,
		MultiPV:   multiPV,
		Sacrifice: sacrifice(m),
	}
	switch m.AfterStatus {
	case board.Checkmate:
		mc.Played = Score{Value: MateScore, IsMate: true, Valid: true}
	case board.Stalemate:
		mc.Played = Score{Valid: true}
	}
	mc.Before = mc.Best
	return mc
}

// sacrifice returns the material the mover gave up with m, in pawns
// from the mover's side: the material difference before the move minus
// the difference right after it. Captures give negative values.
// Unreadable positions count as no sacrifice.
func sacrifice(m pgn.Move) float64 {
	before, err := fen.MaterialBalance(m.Before, m.Side)
	if err != nil {
		return 0
	}
	after, err := fen.MaterialBalance(m.After, m.Side)
	if err != nil {
		return 0
	}
	return round2(round2(before) - round2(after))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EngineLine is one engine line rendered for an annotation.
type EngineLine struct {
	// SAN is the line's first move.
	SAN string
	// Eval is the White-relative evaluation, e.g. "0.35" or "#-3".
	Eval string
	// PV is the start of the principal variation in SAN.
	PV []string
}

// AnnotationContext is everything the annotator needs for one move.
type AnnotationContext struct {
	Classification *Classification

	// EvalTag is the "[%eval ...]" tag for the position after the move,
	// or "" when that position has no evaluation.
	EvalTag string

	// Clock is a "[%clk ...]" tag carried over from the source comment.
	Clock string

	// UserComment is the source comment with analysis tags removed.
	UserComment string

	Lines   []EngineLine
	Depth   int
	MultiPV int
}

// AnnotationOptions control how engine lines are rendered.
type AnnotationOptions struct {
	Depth   int
	MultiPV int
	// PVMoves is the number of principal variation moves to show.
	PVMoves int
}

// BuildAnnotationContext assembles the annotator input for m.
func BuildAnnotationContext(m pgn.Move, c *Classification, evals map[string]Set, opts AnnotationOptions) AnnotationContext {
	user, clock := SplitComment(m.Comment)
	ac := AnnotationContext{
		Classification: c,
		Clock:          clock,
		UserComment:    user,
		Depth:          opts.Depth,
		MultiPV:        opts.MultiPV,
	}

	if before := evals[m.Before]; len(before) > 0 {
		ac.Lines = engineLines(m.Before, before, opts.PVMoves)
	}

	if after := evals[m.After]; len(after) > 0 {
		s := NormalizeScore(after.At(0), White)
		if s.Valid {
			ac.EvalTag = fmt.Sprintf("[%%eval %s,%d]", s, opts.Depth)
		}
	}
	return ac
}

func engineLines(key string, lines Set, pvMoves int) []EngineLine {
	pos, err := board.Decode(key)
	if err != nil {
		return nil
	}
	out := make([]EngineLine, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		san, err := board.SAN(pos, l.Move)
		if err != nil {
			san = l.Move + "?"
		}
		var pv []string
		if len(l.PV) > 0 {
			pv = board.Variation(pos, l.PV, pvMoves)
		}
		out = append(out, EngineLine{
			SAN:  san,
			Eval: NormalizeScore(l, White).String(),
			PV:   pv,
		})
	}
	return out
}
