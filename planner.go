package gamereview

import "github.com/discochess/gamereview/internal/pgn"

// PlanPositions returns the distinct position keys a game needs
// evaluated: the starting position plus the positions before and after
// every move, in first-seen order.
func PlanPositions(g *pgn.Game) []string {
	seen := make(map[string]struct{}, 2*len(g.Moves)+1)
	out := make([]string, 0, len(g.Moves)+1)
	add := func(key string) {
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	add(g.Start)
	for _, m := range g.Moves {
		add(m.Before)
		add(m.After)
	}
	return out
}
