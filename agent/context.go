package agent

import (
	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/scoring"
)

// EngineContext is rebuilt at the start of every tick and passed
// explicitly to every decision step. Nothing in it outlives the tick.
type EngineContext struct {
	Tick           int
	Snapshot       model.GameStateSnapshot
	Stage          calendar.Stage
	StrategyConfig config.StrategyConfig
	Strategy       config.Strategy
	Scoring        config.ScoringConfig
}

func newEngineContext(tick int, snap model.GameStateSnapshot, st config.StrategyConfig, sc config.ScoringConfig) EngineContext {
	return EngineContext{
		Tick:           tick,
		Snapshot:       snap,
		Stage:          calendar.DateStage(snap.Date, sc.Stages),
		StrategyConfig: st,
		Strategy:       st.Strategy(),
		Scoring:        sc,
	}
}

// Day is the absolute career day.
func (ec EngineContext) Day() int { return ec.Snapshot.Date.AbsoluteDay }

// ScoringContext is the scorer's view of the tick.
func (ec EngineContext) ScoringContext() scoring.Context {
	return scoring.NewContext(ec.Snapshot, ec.StrategyConfig.Loadout, ec.Scoring)
}
