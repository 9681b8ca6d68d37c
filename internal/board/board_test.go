package board

import (
	"errors"
	"reflect"
	"testing"

	"github.com/discochess/gamereview/internal/fen"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"key", fen.Start, false},
		{"full fen", fen.Start + " 0 1", false},
		{"garbage", "not a fen", true},
		{"bad placement", "rnbqkbnr/pppppppp/8/8 w KQkq -", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := Decode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPosition) {
					t.Errorf("Decode() error = %v, want ErrInvalidPosition", err)
				}
				return
			}
			if got := Key(pos); got != fen.Start {
				t.Errorf("Key() = %q, want %q", got, fen.Start)
			}
		})
	}
}

func TestSAN(t *testing.T) {
	pos, err := Decode(fen.Start)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	got, err := SAN(pos, "g1f3")
	if err != nil {
		t.Fatalf("SAN() error = %v", err)
	}
	if got != "Nf3" {
		t.Errorf("SAN(g1f3) = %q, want Nf3", got)
	}

	if _, err := SAN(pos, "e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("SAN(e2e5) error = %v, want ErrIllegalMove", err)
	}
}

func TestVariation(t *testing.T) {
	pos, err := Decode(fen.Start)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	tests := []struct {
		name string
		line []string
		max  int
		want []string
	}{
		{"truncated", []string{"e2e4", "e7e5", "g1f3", "b8c6"}, 3, []string{"e4", "e5", "Nf3"}},
		{"illegal stops", []string{"e2e4", "e2e4", "g1f3"}, 3, []string{"e4", "e2e4?"}},
		{"empty", nil, 3, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variation(pos, tt.line, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Variation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want Status
	}{
		{"start", fen.Start, Ongoing},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq -", Checkmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - -", Stalemate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := Decode(tt.key)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got := StatusOf(pos); got != tt.want {
				t.Errorf("StatusOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSide(t *testing.T) {
	pos, err := Decode("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := Side(pos); got != "b" {
		t.Errorf("Side() = %q, want b", got)
	}
}
