package agent

import (
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/model"
)

// StopReason says why the engine entered Terminal.
type StopReason string

const (
	StopNone               StopReason = ""
	StopInfirmary          StopReason = "infirmary"
	StopNeedRest           StopReason = "need_rest"
	StopLowMood            StopReason = "low_mood"
	StopRaceDay            StopReason = "race_day"
	StopBeforeSummer       StopReason = "before_summer"
	StopAtMonth            StopReason = "at_month"
	StopLobbyNotFound      StopReason = "lobby_not_found"
	StopManualEventTimeout StopReason = "manual_event_timeout"
	StopCareerComplete     StopReason = "career_complete"
	StopRequested          StopReason = "requested"
)

// checkStops evaluates the snapshot-driven stop conditions in order.
// Conditions other than race day only apply after the configured day.
func checkStops(ec EngineContext) StopReason {
	sc := ec.StrategyConfig.Stop
	if !sc.Enabled {
		return StopNone
	}
	d := ec.Snapshot.Date

	if sc.OnRaceDay && ec.Snapshot.Turn.RaceDay && !d.Finale {
		return StopRaceDay
	}
	if ec.Day() <= sc.AfterDay {
		return StopNone
	}
	if sc.OnNeedRest && ec.Snapshot.EnergyPercent() <= ec.Scoring.Energy.CriticalPercent {
		return StopNeedRest
	}
	if sc.OnLowMood && lowMood(ec.Snapshot.Mood, sc.MoodThreshold) {
		return StopLowMood
	}
	if d.Finale || d.PreDebut {
		return StopNone
	}
	if sc.BeforeSummer && d.Month == 6 {
		return StopBeforeSummer
	}
	if sc.AtMonth {
		if m := ec.StrategyConfig.TargetMonthNumber(); m > 0 && d.Month == m {
			return StopAtMonth
		}
	}
	return StopNone
}

// stopOnDebuff is checked separately because it runs before the snapshot
// is built; only the date is known at that point.
func stopOnDebuff(st config.StrategyConfig, day int) bool {
	return st.Stop.Enabled && st.Stop.OnInfirmary && day > st.Stop.AfterDay
}

func lowMood(m, threshold model.Mood) bool {
	return m.Known() && threshold.Known() && m <= threshold
}
