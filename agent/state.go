package agent

import (
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/model"
)

// State is a node of the per-tick decision machine.
type State int

const (
	StateIdle State = iota
	StateCheckOverlay
	StateCheckLobby
	StateCheckDebuff
	StateUpdateState
	StateDecideRaceDay
	StateDecideFinale
	StateDecideNormal
	StateTerminal
)

var stateNames = [...]string{
	"idle", "check_overlay", "check_lobby", "check_debuff", "update_state",
	"decide_race_day", "decide_finale", "decide_normal", "terminal",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// EnergyBand splits DecideNormal by energy percentage.
type EnergyBand int

const (
	EnergyNormal EnergyBand = iota
	EnergyLow
	EnergyCritical
)

func (b EnergyBand) String() string {
	switch b {
	case EnergyCritical:
		return "critical"
	case EnergyLow:
		return "low"
	default:
		return "normal"
	}
}

// Transition guards. Each is a pure function of the tick's EngineContext.

func isFinale(ec EngineContext) bool { return ec.Snapshot.Date.Finale }

func isRaceDay(ec EngineContext) bool { return ec.Snapshot.Turn.RaceDay }

func energyBand(ec EngineContext) EnergyBand {
	pct := ec.Snapshot.EnergyPercent()
	e := ec.Scoring.Energy
	switch {
	case pct < e.CriticalPercent:
		return EnergyCritical
	case pct < e.MinimumPercent:
		return EnergyLow
	default:
		return EnergyNormal
	}
}

// needsRecreation is the minimum-mood guard. Race-only presets and
// critical energy skip it.
func needsRecreation(ec EngineContext) bool {
	if ec.Strategy.Kind == config.RaceOnly || energyBand(ec) == EnergyCritical {
		return false
	}
	m := ec.Snapshot.Mood
	return m.Known() && m.Less(ec.StrategyConfig.MinimumMood)
}

// next picks the decide state after UpdateState.
func next(ec EngineContext) State {
	switch {
	case isFinale(ec):
		return StateDecideFinale
	case isRaceDay(ec):
		return StateDecideRaceDay
	default:
		return StateDecideNormal
	}
}

// restAction is rest, flagged as summer rest in July and August.
func restAction(ec EngineContext) model.Action {
	return model.Rest(ec.Snapshot.Date.IsSummer())
}
