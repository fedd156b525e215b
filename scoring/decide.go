package scoring

import (
	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/model"
)

// Outcome is the scorer's verdict for a tick.
type Outcome int

const (
	// OutcomeTrain means Decision.Candidate should be trained.
	OutcomeTrain Outcome = iota
	// OutcomePreferRaceOrRest is the energy-shortage sentinel.
	OutcomePreferRaceOrRest
	// OutcomeBelowGate means nothing met the strategy gate.
	OutcomeBelowGate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTrain:
		return "train"
	case OutcomePreferRaceOrRest:
		return "prefer_race_or_rest"
	default:
		return "below_gate"
	}
}

// Decision is the result of Decide.
type Decision struct {
	Outcome   Outcome
	Candidate Candidate
	Policy    string
}

// Decide applies the energy-shortage override and then the primary gate.
// During pre-debut the gate is not applied and the fallback policy picks.
func Decide(ranked []Candidate, ctx Context, gate float64) Decision {
	if PreferRaceOrRest(ranked, ctx) {
		return Decision{Outcome: OutcomePreferRaceOrRest}
	}
	if ctx.Stage == calendar.PreDebut {
		if c, ok := FallbackSelection(ranked); ok {
			return Decision{Outcome: OutcomeTrain, Candidate: c, Policy: "fallback"}
		}
		return Decision{Outcome: OutcomeBelowGate}
	}
	if c, ok := PrimarySelection(ranked, gate); ok {
		return Decision{Outcome: OutcomeTrain, Candidate: c, Policy: "primary"}
	}
	return Decision{Outcome: OutcomeBelowGate}
}

// WitOnly is the low-energy policy: wit may be trained only when its score
// meets the stage-dependent requirement.
func WitOnly(ranked []Candidate, ctx Context) (Candidate, bool) {
	c, ok := Find(ranked, model.Wit)
	if !ok {
		return Candidate{}, false
	}
	required := ctx.Config.Energy.WitRequiredAfterDebut
	if ctx.Stage == calendar.PreDebut {
		required = ctx.Config.Energy.WitRequiredPreDebut
	}
	if Round6(c.Score) >= Round6(required) {
		return c, true
	}
	return Candidate{}, false
}
