package agent

import (
	"fmt"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/model"
)

// MilestoneKind identifies a career transition worth logging. Milestones
// never influence a decision; they annotate the run log and status.
type MilestoneKind string

const (
	MilestoneDebut       MilestoneKind = "debut"
	MilestoneYearChange  MilestoneKind = "year_change"
	MilestoneStageChange MilestoneKind = "stage_change"
	MilestoneSummerStart MilestoneKind = "summer_start"
	MilestoneMoodDrop    MilestoneKind = "mood_drop"
	MilestoneFinale      MilestoneKind = "finale"
)

// Milestone is detected by diffing consecutive snapshots.
type Milestone struct {
	Kind   MilestoneKind
	Day    int
	Detail string
}

// careerSnapshot holds the diffable fields of one tick.
type careerSnapshot struct {
	day      int
	year     model.Year
	stage    calendar.Stage
	preDebut bool
	summer   bool
	finale   bool
	mood     model.Mood
}

func takeSnapshot(ec EngineContext) careerSnapshot {
	d := ec.Snapshot.Date
	return careerSnapshot{
		day:      d.AbsoluteDay,
		year:     d.Year,
		stage:    ec.Stage,
		preDebut: d.PreDebut,
		summer:   d.IsSummer(),
		finale:   d.Finale,
		mood:     ec.Snapshot.Mood,
	}
}

// detectMilestones compares cur against prev. A nil prev yields nothing:
// the first tick has no baseline.
func detectMilestones(cur careerSnapshot, prev *careerSnapshot) []Milestone {
	if prev == nil {
		return nil
	}
	var out []Milestone
	add := func(k MilestoneKind, format string, args ...any) {
		out = append(out, Milestone{Kind: k, Day: cur.day, Detail: fmt.Sprintf(format, args...)})
	}

	if prev.preDebut && !cur.preDebut {
		add(MilestoneDebut, "debut cleared on day %d", cur.day)
	}
	if cur.finale && !prev.finale {
		add(MilestoneFinale, "finale season reached")
	} else if cur.year != prev.year {
		add(MilestoneYearChange, "%s year began", cur.year)
	}
	if cur.stage != prev.stage {
		add(MilestoneStageChange, "stage %s -> %s", prev.stage, cur.stage)
	}
	if cur.summer && !prev.summer {
		add(MilestoneSummerStart, "summer camp began")
	}
	// Unknown readings are noise, not drops.
	if cur.mood.Less(prev.mood) {
		add(MilestoneMoodDrop, "mood %s -> %s", prev.mood, cur.mood)
	}
	return out
}
