// Package scoring implements the training utility model. Every function is
// a pure function of its arguments; nothing here reads sensors or globals.
package scoring

import (
	"math"
	"sort"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/model"
)

// Context is everything the scorer needs to know about the current tick.
type Context struct {
	Date          model.CareerDate
	Stage         calendar.Stage
	EnergyCurrent float64
	EnergyMax     float64
	Stats         map[model.Stat]int
	Loadout       []model.CardType
	Config        config.ScoringConfig
}

// NewContext derives the stage from the date and the configured thresholds.
func NewContext(s model.GameStateSnapshot, loadout []model.CardType, cfg config.ScoringConfig) Context {
	return Context{
		Date:          s.Date,
		Stage:         calendar.DateStage(s.Date, cfg.Stages),
		EnergyCurrent: s.EnergyCurrent,
		EnergyMax:     s.EnergyMax,
		Stats:         s.Stats,
		Loadout:       loadout,
		Config:        cfg,
	}
}

func (c Context) Day() int { return c.Date.AbsoluteDay }

// EnergyShortage is max minus current energy.
func (c Context) EnergyShortage() float64 { return c.EnergyMax - c.EnergyCurrent }

// Breakdown is the per-term result for one stat, kept for logging.
type Breakdown struct {
	Stat      model.Stat `json:"stat"`
	Rainbow   float64    `json:"rainbow"`
	Friend    float64    `json:"friend"`
	Other     float64    `json:"other"`
	Hint      float64    `json:"hint"`
	NPC       float64    `json:"npc"`
	WitBonus  float64    `json:"witBonus"`
	CardBonus float64    `json:"cardBonus"`
	Penalty   float64    `json:"penalty"`
	RawTotal  float64    `json:"rawTotal"`
	Total     float64    `json:"total"`
}

// RainbowMultiplier is the stage multiplier applied to matching cards.
func RainbowMultiplier(stage calendar.Stage, cfg config.ScoringConfig) float64 {
	return cfg.Rainbow.For(stage)
}

// FriendMultiplier is the per-card value of a friend card on stat s. Wit
// training always uses the fixed wit multiplier.
func FriendMultiplier(s model.Stat, stage calendar.Stage, cfg config.ScoringConfig) float64 {
	if s == model.Wit {
		return cfg.Friend.WitMultiplier
	}
	if stage == calendar.PreDebut || stage == calendar.Early {
		return cfg.Friend.EarlyStage
	}
	return cfg.Friend.LateStage
}

// Score computes the utility of training obs.Stat under ctx.
func Score(obs model.TrainingObservation, ctx Context) Breakdown {
	cfg := ctx.Config
	s := obs.Stat
	b := Breakdown{Stat: s}

	own := model.CardTypeOf(s)
	other := 0
	for t, n := range obs.SupportCounts {
		switch t {
		case own, model.CardFriend, model.CardNPC:
		default:
			other += n
		}
	}

	b.Rainbow = float64(obs.SupportCounts[own]) * RainbowMultiplier(ctx.Stage, cfg) * cfg.SupportBase
	b.Friend = float64(obs.SupportCounts[model.CardFriend]) * FriendMultiplier(s, ctx.Stage, cfg)
	b.Other = float64(other) * cfg.SupportBase

	if obs.HintCount > 0 {
		if ctx.Day() < cfg.Hint.DayThreshold {
			b.Hint = cfg.Hint.EarlyValue
		} else {
			b.Hint = cfg.Hint.LateValue
		}
	}

	b.NPC = float64(obs.NPCCount) * cfg.NPCBase

	if s == model.Wit && ctx.Day() < cfg.Stages.Early {
		b.WitBonus = cfg.WitEarlyBonus
	}

	if ctx.Day() > cfg.SupportCardBonus.ThresholdDay && BonusTypes(ctx.Loadout, cfg)[s] {
		b.CardBonus = cfg.SupportCardBonus.ScoreBonus
	}

	b.RawTotal = b.Rainbow + b.Friend + b.Other + b.Hint + b.NPC + b.WitBonus + b.CardBonus
	b.Penalty = CapPenalty(s, ctx)
	b.Total = b.RawTotal * (1 - b.Penalty)
	return b
}

// BonusTypes returns the stat types that appear most often in the loadout,
// at most MaxBonusTypes of them. Ties go to the configured priority order.
func BonusTypes(loadout []model.CardType, cfg config.ScoringConfig) map[model.Stat]bool {
	counts := make(map[model.Stat]int)
	for _, t := range loadout {
		s := model.Stat(t)
		if s.Valid() {
			counts[s]++
		}
	}
	stats := make([]model.Stat, 0, len(counts))
	for s := range counts {
		stats = append(stats, s)
	}
	prio := priorityIndex(cfg.PriorityStats)
	sort.Slice(stats, func(i, j int) bool {
		if counts[stats[i]] != counts[stats[j]] {
			return counts[stats[i]] > counts[stats[j]]
		}
		return prio[stats[i]] < prio[stats[j]]
	})
	out := make(map[model.Stat]bool)
	for i := 0; i < len(stats) && i < cfg.SupportCardBonus.MaxBonusTypes; i++ {
		out[stats[i]] = true
	}
	return out
}

// CapPenalty is the fraction (0..1) taken off a stat's score as it nears
// its cap. Zero when disabled or when the stat value is unknown.
func CapPenalty(s model.Stat, ctx Context) float64 {
	p := ctx.Config.StatCapPenalty
	if !p.Enabled {
		return 0
	}
	v, ok := ctx.Stats[s]
	if !ok {
		return 0
	}
	limit := ctx.Config.StatCaps[s]
	if limit <= 0 {
		return 0
	}
	capV := float64(limit)
	start := math.Max(capV*p.StartPercent/100, capV-float64(p.StartGap))
	maxFrac := p.MaxPercent / 100
	val := float64(v)
	switch {
	case val >= capV:
		return maxFrac
	case val <= start:
		return 0
	default:
		return (val - start) / (capV - start) * maxFrac
	}
}

// Round6 rounds to six decimal places, the precision scores are compared at.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
