package gamereview

import (
	"reflect"
	"testing"

	"github.com/discochess/gamereview/internal/pgn"
)

func sixPlyGame() *pgn.Game {
	g := &pgn.Game{
		Tags: []pgn.Tag{
			{Key: "Event", Value: "Club"},
			{Key: "White", Value: "Alice"},
			{Key: "Black", Value: "Bob"},
		},
	}
	for i := 0; i < 6; i++ {
		side := White
		if i%2 == 1 {
			side = Black
		}
		g.Moves = append(g.Moves, pgn.Move{Index: i, Side: side})
	}
	return g
}

func sixResults() []Classification {
	return []Classification{
		{Text: "Best", CPL: 0, TopChoice: true, TopN: true},
		{Text: "Good (CPL: 20)", CPL: 20, TopN: true},
		{Text: "Mistake (CPL: 250)", CPL: 250},
		{Text: "Best", CPL: 2, TopChoice: true, TopN: true},
		{Text: "Good (CPL: 30)", CPL: 30, TopN: true},
		{Text: "Blunder !!! (CPL: 900)", CPL: 900},
	}
}

func TestBuildSummary_White(t *testing.T) {
	s := BuildSummary(sixPlyGame(), "g1", "alice", sixResults())
	if s == nil {
		t.Fatal("BuildSummary() = nil")
	}

	if s.GameID != "g1" || s.Player != "Alice" || s.Color != "White" {
		t.Errorf("summary = %q %q %q", s.GameID, s.Player, s.Color)
	}
	if want := []float64{0, 250, 30}; !reflect.DeepEqual(s.CPLs, want) {
		t.Errorf("CPLs = %v, want %v", s.CPLs, want)
	}
	if want := map[string]int{"Best": 1, "Mistake": 1, "Good": 1}; !reflect.DeepEqual(s.Counts, want) {
		t.Errorf("Counts = %v, want %v", s.Counts, want)
	}
	if s.Top1 != 1 || s.TopN != 2 {
		t.Errorf("Top1 = %d, TopN = %d", s.Top1, s.TopN)
	}
	if s.Headers["Event"] != "Club" {
		t.Errorf("Headers = %v", s.Headers)
	}
	if got := s.ACPL(); got != 280.0/3 {
		t.Errorf("ACPL() = %v", got)
	}
}

func TestBuildSummary_Black(t *testing.T) {
	s := BuildSummary(sixPlyGame(), "g1", "BOB", sixResults())
	if s == nil {
		t.Fatal("BuildSummary() = nil")
	}
	if s.Color != "Black" || s.Moves() != 3 {
		t.Errorf("Color = %q, Moves() = %d", s.Color, s.Moves())
	}
	if want := []float64{20, 2, 900}; !reflect.DeepEqual(s.CPLs, want) {
		t.Errorf("CPLs = %v, want %v", s.CPLs, want)
	}
	if s.Counts["Blunder !!!"] != 1 {
		t.Errorf("Counts = %v", s.Counts)
	}
}

func TestBuildSummary_None(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		results []Classification
	}{
		{"no target", "", sixResults()},
		{"stranger", "carol", sixResults()},
		{"no moves", "alice", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := BuildSummary(sixPlyGame(), "g1", tt.target, tt.results); s != nil {
				t.Errorf("BuildSummary() = %+v, want nil", s)
			}
		})
	}
}

func TestSideACPL(t *testing.T) {
	g := sixPlyGame()
	white, black := SideACPL(g.Moves, sixResults())
	if white != "93.3" || black != "307.3" {
		t.Errorf("SideACPL() = %q, %q", white, black)
	}

	white, black = SideACPL(g.Moves[:1], sixResults()[:1])
	if white != "0.0" || black != "0.0" {
		t.Errorf("SideACPL() = %q, %q, want 0.0 for both", white, black)
	}
}
