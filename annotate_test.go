package gamereview

import "testing"

func TestSplitComment(t *testing.T) {
	tests := []struct {
		name      string
		comment   string
		wantUser  string
		wantClock string
	}{
		{"empty", "", "", ""},
		{"user only", "a fine idea", "a fine idea", ""},
		{"clock only", "[%clk 0:03:21]", "", "[%clk 0:03:21]"},
		{"clock and text", "[%clk 0:03:21.5] threatens mate", "threatens mate", "[%clk 0:03:21.5]"},
		{
			name:      "previous analysis",
			comment:   "Good (CPL: 32) [%eval 0.35,18] [%clk 0:01:00] [Analyse SF16@18d2pv: Best: e4 (0.35); Top: 1.e4(0.35) 2.d4(0.20)] my note",
			wantUser:  "my note",
			wantClock: "[%clk 0:01:00]",
		},
		{
			name:     "previous blunder",
			comment:  "Blunder !!! (CPL: 700) [%eval -5.00,18]",
			wantUser: "",
		},
		{
			name:     "braced classification",
			comment:  "{Inaccuracy (CPL: 120)} {kept}",
			wantUser: "kept",
		},
		{
			name:     "label words in plain user text",
			comment:  "Good game overall",
			wantUser: "Good game overall",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, clock := SplitComment(tt.comment)
			if user != tt.wantUser || clock != tt.wantClock {
				t.Errorf("SplitComment() = (%q, %q), want (%q, %q)", user, clock, tt.wantUser, tt.wantClock)
			}
		})
	}
}

func TestAnnotator_Comment(t *testing.T) {
	a := NewAnnotator("SF16")
	c := Classification{Text: "Good (CPL: 32)"}

	tests := []struct {
		name string
		ac   AnnotationContext
		want string
	}{
		{
			name: "everything",
			ac: AnnotationContext{
				Classification: &c,
				EvalTag:        "[%eval 0.30,18]",
				Clock:          "[%clk 0:05:00]",
				UserComment:    "nice",
				Depth:          18,
				MultiPV:        2,
				Lines: []EngineLine{
					{SAN: "e4", Eval: "0.35", PV: []string{"e4", "e5", "Nf3"}},
					{SAN: "d4", Eval: "0.20"},
				},
			},
			want: "Good (CPL: 32) [%eval 0.30,18] [%clk 0:05:00] [Analyse SF16@18d2pv: Best: e4 (0.35) PV: e4 e5 Nf3; Top: 1.e4(0.35) 2.d4(0.20)] nice",
		},
		{
			name: "single line has no top list",
			ac: AnnotationContext{
				Classification: &c,
				Depth:          12,
				MultiPV:        1,
				Lines:          []EngineLine{{SAN: "Nf3", Eval: "#2"}},
			},
			want: "Good (CPL: 32) [Analyse SF16@12d1pv: Best: Nf3 (#2)]",
		},
		{
			name: "nothing",
			ac:   AnnotationContext{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Comment(tt.ac); got != tt.want {
				t.Errorf("Comment() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestAnnotator_RoundTrip(t *testing.T) {
	a := NewAnnotator("")
	c := Classification{Text: LabelGreat}
	comment := a.Comment(AnnotationContext{
		Classification: &c,
		EvalTag:        "[%eval 1.20,18]",
		Clock:          "[%clk 1:00:00]",
		UserComment:    "only move",
		Depth:          18,
		MultiPV:        1,
		Lines:          []EngineLine{{SAN: "Qh5", Eval: "1.20"}},
	})

	user, clock := SplitComment(comment)
	if user != "only move" || clock != "[%clk 1:00:00]" {
		t.Errorf("SplitComment(%q) = (%q, %q)", comment, user, clock)
	}
}
