package gamereview

import (
	"strconv"

	"github.com/discochess/gamereview/internal/eval"
)

// Line and Set are the engine evaluation records.
type (
	Line = eval.Line
	Set  = eval.Set
)

// Sides as they appear in position keys.
const (
	White = "w"
	Black = "b"
)

// MateScore is the centipawn value of an immediate mate. A mate in n
// scores MateScore-n, so faster mates rank above slower ones and every
// mate ranks above any capped centipawn score.
const MateScore = 30000

// Score is a line's value seen from one side.
type Score struct {
	// Value is in centipawns, with mates folded in as ±(MateScore-|n|).
	Value float64

	// Mate is the signed distance to mate for the viewing side, 0 when
	// the line is not a mate.
	Mate int

	// IsMate reports whether Value came from a mate distance.
	IsMate bool

	// Valid is false when the line was absent or carried no usable
	// number.
	Valid bool
}

// NormalizeScore converts a White-relative line into a score for side.
// A mate distance of 0 scores as a plain 0. Absent or non-numeric input
// yields an invalid Score.
func NormalizeScore(l *Line, side string) Score {
	if l == nil {
		return Score{}
	}

	var s Score
	switch {
	case l.Mate != nil:
		m := *l.Mate
		switch {
		case m == 0:
			s = Score{Valid: true}
		case m > 0:
			s = Score{Value: float64(MateScore - m), Mate: m, IsMate: true, Valid: true}
		default:
			s = Score{Value: float64(-MateScore - m), Mate: m, IsMate: true, Valid: true}
		}
	case l.Centipawns != nil:
		s = Score{Value: float64(*l.Centipawns), Valid: true}
	default:
		return Score{}
	}

	if side == Black {
		return s.Neg()
	}
	return s
}

// Neg returns the score seen from the other side.
func (s Score) Neg() Score {
	if !s.Valid {
		return s
	}
	return Score{Value: -s.Value, Mate: -s.Mate, IsMate: s.IsMate, Valid: true}
}

// Capped clamps a non-mate score to ±limit. Mate scores are returned
// unchanged, and an invalid score counts as 0.
func (s Score) Capped(limit float64) float64 {
	if !s.Valid {
		return 0
	}
	if s.IsMate {
		return s.Value
	}
	return clamp(s.Value, -limit, limit)
}

// String formats the score in pawns. Examples: "0.35", "-1.20", "#3", "#-5".
func (s Score) String() string {
	if !s.Valid {
		return "?"
	}
	if s.IsMate {
		return "#" + strconv.Itoa(s.Mate)
	}
	return strconv.FormatFloat(s.Value/100, 'f', 2, 64)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
