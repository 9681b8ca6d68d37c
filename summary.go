package gamereview

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/discochess/gamereview/internal/pgn"
)

// GameSummary aggregates one game for the targeted player.
type GameSummary struct {
	GameID string
	Player string
	// Color is "White" or "Black".
	Color string

	// CPLs are the player's per-move metrics CPL in game order.
	CPLs []float64

	// Counts maps simplified labels such as "Good" to occurrences.
	Counts map[string]int

	Top1 int
	TopN int

	Headers map[string]string
}

// ACPL returns the mean CPL, or 0 when there are no moves.
func (s *GameSummary) ACPL() float64 {
	if len(s.CPLs) == 0 {
		return 0
	}
	return stat.Mean(s.CPLs, nil)
}

// Moves returns the number of moves the player made.
func (s *GameSummary) Moves() int {
	return len(s.CPLs)
}

// BuildSummary folds the classifications of g's moves for target, who
// must match the White or Black header case-insensitively. results[i]
// belongs to g.Moves[i]. It returns nil when there is no target, the
// target did not play the game, or the target made no moves.
func BuildSummary(g *pgn.Game, gameID, target string, results []Classification) *GameSummary {
	if target == "" {
		return nil
	}

	white, black := g.Tag("White"), g.Tag("Black")
	var side, name, color string
	switch {
	case strings.EqualFold(target, white):
		side, name, color = White, white, "White"
	case strings.EqualFold(target, black):
		side, name, color = Black, black, "Black"
	default:
		return nil
	}

	s := &GameSummary{
		GameID:  gameID,
		Player:  name,
		Color:   color,
		Counts:  make(map[string]int),
		Headers: g.Headers(),
	}
	for i, r := range results {
		if i >= len(g.Moves) || g.Moves[i].Side != side {
			continue
		}
		s.CPLs = append(s.CPLs, r.CPL)
		s.Counts[r.Label()]++
		if r.TopChoice {
			s.Top1++
		}
		if r.TopN {
			s.TopN++
		}
	}
	if len(s.CPLs) == 0 {
		return nil
	}
	return s
}

// SideACPL returns the mean metrics CPL for each side formatted with one
// decimal, "0.0" for a side without moves.
func SideACPL(moves []pgn.Move, results []Classification) (white, black string) {
	var w, b []float64
	for i, r := range results {
		if i >= len(moves) {
			break
		}
		if moves[i].Side == White {
			w = append(w, r.CPL)
		} else {
			b = append(b, r.CPL)
		}
	}
	return formatMean(w), formatMean(b)
}

func formatMean(xs []float64) string {
	if len(xs) == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(stat.Mean(xs, nil), 'f', 1, 64)
}
