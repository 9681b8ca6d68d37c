package gamereview

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCriteria indicates classification criteria that fail validation.
var ErrInvalidCriteria = errors.New("gamereview: invalid criteria")

// Tier is one row of the CPL classification table.
type Tier struct {
	Name string `validate:"required"`

	// MaxCPL is the inclusive upper bound for the tier.
	MaxCPL float64 `validate:"gte=0"`
}

// BrilliantCriteria decide when a sound sacrifice is called brilliant.
type BrilliantCriteria struct {
	// MaxCPL is the largest raw CPL a brilliant move may lose.
	MaxCPL float64 `validate:"gte=0"`

	// EvalDropLeniency is the largest drop from the pre-move evaluation
	// to the played move's evaluation.
	EvalDropLeniency float64 `validate:"gte=0"`

	// MaxEvalBefore disqualifies positions the mover was already winning.
	MaxEvalBefore float64 `validate:"gte=0"`

	// MinSacrifice is the net material given up, in pawns.
	MinSacrifice float64 `validate:"gt=0"`
}

// GreatCriteria decide when an only-move is called great.
type GreatCriteria struct {
	// MinGap is the smallest lead of the best line over the second.
	MinGap float64 `validate:"gt=0"`
}

// Criteria configure the move classifier.
type Criteria struct {
	Brilliant BrilliantCriteria
	Great     GreatCriteria

	// Tiers are ordered best to worst. Moves above the last tier are
	// blunders.
	Tiers []Tier `validate:"required,min=1,dive"`

	// EvalCap clamps each non-mate evaluation before computing CPL.
	EvalCap float64 `validate:"gt=0"`

	// MoveCPLCap clamps the CPL reported for a single move.
	MoveCPLCap float64 `validate:"gt=0"`
}

// DefaultCriteria returns the standard classification criteria.
func DefaultCriteria() Criteria {
	return Criteria{
		Brilliant: BrilliantCriteria{
			MaxCPL:           20,
			EvalDropLeniency: 15,
			MaxEvalBefore:    350,
			MinSacrifice:     2.5,
		},
		Great: GreatCriteria{MinGap: 120},
		Tiers: []Tier{
			{Name: LabelBest, MaxCPL: 5},
			{Name: "Good", MaxCPL: 40},
			{Name: "OK", MaxCPL: 70},
			{Name: "Dubious", MaxCPL: 90},
			{Name: "Inaccuracy", MaxCPL: 180},
			{Name: "Mistake", MaxCPL: 300},
		},
		EvalCap:    1000,
		MoveCPLCap: 1000,
	}
}

var validate = validator.New()

// Validate checks field ranges and that tiers are in ascending order.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	for i := 1; i < len(c.Tiers); i++ {
		if c.Tiers[i].MaxCPL < c.Tiers[i-1].MaxCPL {
			return fmt.Errorf("%w: tier %q below %q", ErrInvalidCriteria, c.Tiers[i].Name, c.Tiers[i-1].Name)
		}
	}
	return nil
}
