package scoring

import (
	"sort"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/model"
)

// Candidate is a scored, still-eligible stat.
type Candidate struct {
	Stat      model.Stat
	Score     float64
	Breakdown Breakdown
	priority  int
}

// Priority is the candidate's index in the priority order used to rank it.
func (c Candidate) Priority() int { return c.priority }

// PriorityOrder returns the configured stat priority, with wit moved to
// the front during pre-debut.
func PriorityOrder(ctx Context) []model.Stat {
	base := ctx.Config.PriorityStats
	if len(base) == 0 {
		base = model.AllStats
	}
	if ctx.Stage != calendar.PreDebut {
		return append([]model.Stat(nil), base...)
	}
	out := []model.Stat{model.Wit}
	for _, s := range base {
		if s != model.Wit {
			out = append(out, s)
		}
	}
	return out
}

func priorityIndex(order []model.Stat) map[model.Stat]int {
	idx := make(map[model.Stat]int, len(order))
	for i, s := range order {
		idx[s] = i
	}
	return idx
}

// Evaluate scores every observation and returns ranked candidates with
// capped stats already removed.
func Evaluate(obs []model.TrainingObservation, ctx Context) []Candidate {
	prio := priorityIndex(PriorityOrder(ctx))
	cands := make([]Candidate, 0, len(obs))
	for _, o := range obs {
		b := Score(o, ctx)
		p, ok := prio[o.Stat]
		if !ok {
			p = len(prio)
		}
		cands = append(cands, Candidate{Stat: o.Stat, Score: b.Total, Breakdown: b, priority: p})
	}
	cands = FilterCapped(cands, ctx)
	Rank(cands)
	return cands
}

// Rank sorts by (-round(score, 6), priority index). The sort is stable, so
// the result never depends on input order once priorities differ.
func Rank(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		si, sj := Round6(cands[i].Score), Round6(cands[j].Score)
		if si != sj {
			return si > sj
		}
		return cands[i].priority < cands[j].priority
	})
}

// FilterCapped drops stats already at or above their cap once the cap day
// has been reached. Applying it twice is the same as applying it once.
func FilterCapped(cands []Candidate, ctx Context) []Candidate {
	if ctx.Day() < ctx.Config.StatCapDay {
		return cands
	}
	out := cands[:0:0]
	for _, c := range cands {
		if Capped(c.Stat, ctx) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Capped reports whether s has reached its configured cap.
func Capped(s model.Stat, ctx Context) bool {
	v, ok := ctx.Stats[s]
	if !ok {
		return false
	}
	limit, ok := ctx.Config.StatCaps[s]
	return ok && v >= limit
}

// PrimarySelection returns the best-ranked candidate whose score meets the
// strategy gate. Candidates must already be ranked.
func PrimarySelection(ranked []Candidate, gate float64) (Candidate, bool) {
	for _, c := range ranked {
		if Round6(c.Score) >= Round6(gate) {
			return c, true
		}
	}
	return Candidate{}, false
}

// FallbackSelection ignores the gate and returns the best-ranked candidate
// with a positive score.
func FallbackSelection(ranked []Candidate) (Candidate, bool) {
	for _, c := range ranked {
		if Round6(c.Score) > 0 {
			return c, true
		}
	}
	return Candidate{}, false
}

// Find returns the candidate for stat s.
func Find(ranked []Candidate, s model.Stat) (Candidate, bool) {
	for _, c := range ranked {
		if c.Stat == s {
			return c, true
		}
	}
	return Candidate{}, false
}

// PreferRaceOrRest is the energy-shortage override: in mid and late stage,
// when the shortage is at least the configured level and nothing scores
// above the ceiling, training is not worth the energy.
func PreferRaceOrRest(ranked []Candidate, ctx Context) bool {
	if ctx.Stage != calendar.Mid && ctx.Stage != calendar.Late {
		return false
	}
	e := ctx.Config.Energy
	if ctx.EnergyShortage() < e.MediumShortage {
		return false
	}
	for _, c := range ranked {
		if Round6(c.Score) > Round6(e.MediumMaxScore) {
			return false
		}
	}
	return true
}
