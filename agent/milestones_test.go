package agent

import (
	"testing"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/model"
)

// contextOn builds an EngineContext for the given date and mood with
// default configuration and full energy.
func contextOn(d model.CareerDate, mood model.Mood) EngineContext {
	snap := model.NewSnapshot(mood, 100, 100, model.Turn{Days: 5}, d)
	return newEngineContext(1, snap, config.DefaultStrategy(), config.DefaultScoring())
}

func dateOf(y model.Year, month int, p model.Period) model.CareerDate {
	return model.CareerDate{Year: y, Month: month, Period: p, AbsoluteDay: calendar.AbsoluteDay(y, month, p)}
}

func hasMilestone(ms []Milestone, k MilestoneKind) bool {
	for _, m := range ms {
		if m.Kind == k {
			return true
		}
	}
	return false
}

func TestDetectMilestones_NilPrev(t *testing.T) {
	cur := takeSnapshot(contextOn(dateOf(model.Junior, 8, model.Early), model.MoodGood))
	if ms := detectMilestones(cur, nil); ms != nil {
		t.Errorf("expected nil milestones for nil prev, got %+v", ms)
	}
}

func TestDetectMilestones_NoChange(t *testing.T) {
	prev := takeSnapshot(contextOn(dateOf(model.Classic, 3, model.Early), model.MoodGood))
	cur := takeSnapshot(contextOn(dateOf(model.Classic, 3, model.Late), model.MoodGood))
	if ms := detectMilestones(cur, &prev); len(ms) != 0 {
		t.Errorf("expected 0 milestones, got %d: %+v", len(ms), ms)
	}
}

func TestDetectMilestones_Debut(t *testing.T) {
	pre := model.CareerDate{Year: model.Junior, AbsoluteDay: 1, PreDebut: true}
	prev := takeSnapshot(contextOn(pre, model.MoodNormal))
	cur := takeSnapshot(contextOn(dateOf(model.Junior, 7, model.Early), model.MoodNormal))
	if ms := detectMilestones(cur, &prev); !hasMilestone(ms, MilestoneDebut) {
		t.Errorf("expected debut milestone, got %+v", ms)
	}
}

func TestDetectMilestones_YearAndSummer(t *testing.T) {
	prev := takeSnapshot(contextOn(dateOf(model.Junior, 12, model.Late), model.MoodNormal))
	cur := takeSnapshot(contextOn(dateOf(model.Classic, 1, model.Early), model.MoodNormal))
	if ms := detectMilestones(cur, &prev); !hasMilestone(ms, MilestoneYearChange) {
		t.Errorf("expected year change, got %+v", ms)
	}

	prev = takeSnapshot(contextOn(dateOf(model.Classic, 6, model.Late), model.MoodNormal))
	cur = takeSnapshot(contextOn(dateOf(model.Classic, 7, model.Early), model.MoodNormal))
	if ms := detectMilestones(cur, &prev); !hasMilestone(ms, MilestoneSummerStart) {
		t.Errorf("expected summer start, got %+v", ms)
	}
}

func TestDetectMilestones_Finale(t *testing.T) {
	prev := takeSnapshot(contextOn(dateOf(model.Senior, 12, model.Late), model.MoodNormal))
	cur := takeSnapshot(contextOn(calendar.Finale(), model.MoodNormal))
	ms := detectMilestones(cur, &prev)
	if !hasMilestone(ms, MilestoneFinale) {
		t.Errorf("expected finale milestone, got %+v", ms)
	}
	if hasMilestone(ms, MilestoneYearChange) {
		t.Errorf("finale should not also report a year change: %+v", ms)
	}
}

func TestDetectMilestones_MoodDrop(t *testing.T) {
	d := dateOf(model.Classic, 4, model.Early)
	prev := takeSnapshot(contextOn(d, model.MoodGreat))
	cur := takeSnapshot(contextOn(d, model.MoodBad))
	if ms := detectMilestones(cur, &prev); !hasMilestone(ms, MilestoneMoodDrop) {
		t.Errorf("expected mood drop, got %+v", ms)
	}

	// An unreadable mood is not a drop.
	cur = takeSnapshot(contextOn(d, model.MoodUnknown))
	if ms := detectMilestones(cur, &prev); hasMilestone(ms, MilestoneMoodDrop) {
		t.Errorf("unknown mood reported as drop: %+v", ms)
	}
}
