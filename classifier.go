package gamereview

import (
	"fmt"
	"strings"
)

// Classification labels that are not tier names.
const (
	LabelBest        = "Best"
	LabelBlunder     = "Blunder"
	LabelBrilliant   = "Brilliant ✨"
	LabelGreat       = "Great Move !"
	LabelUnavailable = "Unavailable (eval error)"
)

// Classification is the verdict on one move.
type Classification struct {
	// Text is the label shown in annotations, e.g. "Good (CPL: 32)".
	Text string

	// CPL is the centipawn loss used for metrics, within [0, MoveCPLCap].
	CPL float64

	// RawCPL is the unclamped loss. It is negative when the played move
	// scored better than the engine's best line.
	RawCPL float64

	Brilliant bool
	Great     bool

	// TopChoice reports the move was the engine's first line.
	TopChoice bool

	// TopN reports the move appeared in any of the engine's lines.
	TopN bool
}

// Label returns Text without its parenthetical detail.
func (c Classification) Label() string {
	label, _, _ := strings.Cut(c.Text, "(")
	return strings.TrimSpace(label)
}

// MoveContext is everything the classifier needs to judge one move.
// Scores are from the mover's point of view.
type MoveContext struct {
	// Move is the played move in UCI notation.
	Move string

	Best   Score
	Second Score
	// Played is the evaluation of the position after the move.
	Played Score
	// Before is the evaluation of the position before the move.
	Before Score

	// Lines are the engine's ranked lines before the move.
	Lines Set

	// MultiPV is the number of lines that were requested.
	MultiPV int

	// Sacrifice is the net material the mover gave up, in pawns.
	Sacrifice float64
}

// Classifier labels moves. It is safe for concurrent use.
type Classifier struct {
	criteria Criteria
}

// NewClassifier creates a Classifier with validated criteria.
func NewClassifier(c Criteria) (*Classifier, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{criteria: c}, nil
}

// Criteria returns the criteria the classifier was built with.
func (c *Classifier) Criteria() Criteria {
	return c.criteria
}

// Classify labels a move. Checks run in order: missing evaluations,
// brilliant, great, then the CPL tiers. The first match wins.
func (c *Classifier) Classify(mc MoveContext) Classification {
	top, topN := c.topFlags(mc)

	if !mc.Best.Valid || !mc.Played.Valid {
		return Classification{Text: LabelUnavailable, TopChoice: top, TopN: topN}
	}

	raw := mc.Best.Capped(c.criteria.EvalCap) - mc.Played.Capped(c.criteria.EvalCap)
	cpl := clamp(raw, 0, c.criteria.MoveCPLCap)

	if c.isBrilliant(mc, raw) {
		return Classification{
			Text:      LabelBrilliant,
			RawCPL:    raw,
			Brilliant: true,
			TopChoice: top,
			TopN:      topN,
		}
	}

	if c.isGreat(mc, top) {
		return Classification{
			Text:      LabelGreat,
			Great:     true,
			TopChoice: true,
			TopN:      true,
		}
	}

	name := c.tier(cpl)
	text := fmt.Sprintf("%s (CPL: %.0f)", name, cpl)
	switch name {
	case LabelBest:
		text = LabelBest
	case LabelBlunder:
		text = fmt.Sprintf("Blunder !!! (CPL: %.0f)", cpl)
	}
	return Classification{
		Text:      text,
		CPL:       cpl,
		RawCPL:    raw,
		TopChoice: top,
		TopN:      topN,
	}
}

func (c *Classifier) topFlags(mc MoveContext) (top, topN bool) {
	if best := mc.Lines.Best(); best != nil {
		top = best.Move == mc.Move
	}
	return top, top || mc.Lines.Contains(mc.Move)
}

func (c *Classifier) isBrilliant(mc MoveContext, raw float64) bool {
	crit := c.criteria.Brilliant
	if !mc.Before.Valid || !mc.Played.Valid {
		return false
	}
	if raw > crit.MaxCPL {
		return false
	}
	if alreadyWinning(mc.Before, crit.MaxEvalBefore) {
		return false
	}
	if mc.Before.Value-mc.Played.Value > crit.EvalDropLeniency {
		return false
	}
	return mc.Sacrifice >= crit.MinSacrifice
}

// alreadyWinning reports whether the mover was mating or above ceiling.
func alreadyWinning(s Score, ceiling float64) bool {
	if s.IsMate {
		return s.Value > 0
	}
	return s.Value > ceiling
}

func (c *Classifier) isGreat(mc MoveContext, top bool) bool {
	if !top || mc.MultiPV < 2 {
		return false
	}
	if !mc.Best.Valid || !mc.Second.Valid {
		return false
	}
	if mc.Best.IsMate || mc.Second.IsMate {
		return false
	}
	return mc.Best.Value-mc.Second.Value >= c.criteria.Great.MinGap
}

func (c *Classifier) tier(cpl float64) string {
	for _, t := range c.criteria.Tiers {
		if cpl <= t.MaxCPL {
			return t.Name
		}
	}
	return LabelBlunder
}
