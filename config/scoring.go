// Package config holds the typed, validated scoring and strategy documents
// and the hot-reloadable store that serves them to the engine.
package config

import (
	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/model"
)

type HintConfig struct {
	EarlyValue   float64 `yaml:"early_value" json:"early_value"`
	LateValue    float64 `yaml:"late_value" json:"late_value"`
	DayThreshold int     `yaml:"day_threshold" json:"day_threshold"`
}

type FriendConfig struct {
	EarlyStage    float64 `yaml:"early_stage" json:"early_stage"`
	LateStage     float64 `yaml:"late_stage" json:"late_stage"`
	WitMultiplier float64 `yaml:"friend_wit_multiplier" json:"friend_wit_multiplier"`
}

type RainbowConfig struct {
	PreDebut float64 `yaml:"pre_debut" json:"pre_debut"`
	Early    float64 `yaml:"early" json:"early"`
	Mid      float64 `yaml:"mid" json:"mid"`
	Late     float64 `yaml:"late" json:"late"`
}

// For returns the multiplier for stage s.
func (r RainbowConfig) For(s calendar.Stage) float64 {
	switch s {
	case calendar.PreDebut:
		return r.PreDebut
	case calendar.Early:
		return r.Early
	case calendar.Mid:
		return r.Mid
	default:
		return r.Late
	}
}

type SupportCardBonus struct {
	ScoreBonus    float64 `yaml:"score_bonus" json:"score_bonus"`
	ThresholdDay  int     `yaml:"threshold_day" json:"threshold_day"`
	MaxBonusTypes int     `yaml:"max_bonus_types" json:"max_bonus_types"`
}

type EnergyConfig struct {
	MinimumPercent        float64 `yaml:"minimum_energy_percentage" json:"minimum_energy_percentage"`
	CriticalPercent       float64 `yaml:"critical_energy_percentage" json:"critical_energy_percentage"`
	MediumShortage        float64 `yaml:"medium_energy_shortage" json:"medium_energy_shortage"`
	MediumMaxScore        float64 `yaml:"medium_energy_max_score_threshold" json:"medium_energy_max_score_threshold"`
	WitRequiredPreDebut   float64 `yaml:"wit_required_pre_debut" json:"wit_required_pre_debut"`
	WitRequiredAfterDebut float64 `yaml:"wit_required_after_debut" json:"wit_required_after_debut"`
}

type StatCapPenalty struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	MaxPercent   float64 `yaml:"max_penalty_percent" json:"max_penalty_percent"`
	StartPercent float64 `yaml:"start_penalty_percent" json:"start_penalty_percent"`
	StartGap     int     `yaml:"start_penalty_gap" json:"start_penalty_gap"`
}

// ScoringConfig carries every weight and threshold of the training model.
type ScoringConfig struct {
	Stages           calendar.Thresholds `yaml:"stage_thresholds" json:"stage_thresholds"`
	Hint             HintConfig          `yaml:"hint" json:"hint"`
	NPCBase          float64             `yaml:"npc_base_value" json:"npc_base_value"`
	SupportBase      float64             `yaml:"base_support_score" json:"base_support_score"`
	Friend           FriendConfig        `yaml:"friend_multiplier" json:"friend_multiplier"`
	Rainbow          RainbowConfig       `yaml:"rainbow_multiplier" json:"rainbow_multiplier"`
	SupportCardBonus SupportCardBonus    `yaml:"support_card_bonus" json:"support_card_bonus"`
	WitEarlyBonus    float64             `yaml:"wit_early_stage_bonus" json:"wit_early_stage_bonus"`
	Energy           EnergyConfig        `yaml:"energy" json:"energy"`
	StatCaps         map[model.Stat]int  `yaml:"stat_caps" json:"stat_caps"`
	StatCapDay       int                 `yaml:"stat_cap_threshold_day" json:"stat_cap_threshold_day"`
	StatCapPenalty   StatCapPenalty      `yaml:"stat_cap_penalty" json:"stat_cap_penalty"`
	PriorityStats    []model.Stat        `yaml:"priority_stat" json:"priority_stat"`
}

// DefaultScoring is the single source of built-in scoring defaults.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Stages: calendar.DefaultThresholds(),
		Hint: HintConfig{
			EarlyValue:   1.0,
			LateValue:    0.75,
			DayThreshold: 24,
		},
		NPCBase:     0.4,
		SupportBase: 1.0,
		Friend: FriendConfig{
			EarlyStage:    1.2,
			LateStage:     1.1,
			WitMultiplier: 0.5,
		},
		Rainbow: RainbowConfig{
			PreDebut: 1.0,
			Early:    1.0,
			Mid:      2.25,
			Late:     2.25,
		},
		SupportCardBonus: SupportCardBonus{
			ScoreBonus:    0.5,
			ThresholdDay:  24,
			MaxBonusTypes: 2,
		},
		WitEarlyBonus: 0.1,
		Energy: EnergyConfig{
			MinimumPercent:        43,
			CriticalPercent:       25,
			MediumShortage:        50,
			MediumMaxScore:        2.5,
			WitRequiredPreDebut:   2.0,
			WitRequiredAfterDebut: 3.0,
		},
		StatCaps: map[model.Stat]int{
			model.Speed: 1200, model.Stamina: 1200, model.Power: 1200, model.Guts: 1200, model.Wit: 1200,
		},
		StatCapDay: 30,
		StatCapPenalty: StatCapPenalty{
			Enabled:      true,
			MaxPercent:   40,
			StartPercent: 80,
			StartGap:     200,
		},
		PriorityStats: []model.Stat{model.Speed, model.Power, model.Stamina, model.Wit, model.Guts},
	}
}

// Validate clamps every field into its legal range and restores the stage
// ordering. It never fails; out-of-range input is corrected.
func (c *ScoringConfig) Validate() {
	c.Stages.PreDebut = clampInt(c.Stages.PreDebut, 0, model.TotalDays)
	c.Stages.Early = clampInt(c.Stages.Early, 0, model.TotalDays)
	c.Stages.Mid = clampInt(c.Stages.Mid, 0, model.TotalDays)
	if c.Stages.Early < c.Stages.PreDebut {
		c.Stages.Early = c.Stages.PreDebut
	}
	if c.Stages.Mid < c.Stages.Early {
		c.Stages.Mid = c.Stages.Early
	}

	c.Hint.EarlyValue = clamp(c.Hint.EarlyValue, 0, 10)
	c.Hint.LateValue = clamp(c.Hint.LateValue, 0, 10)
	c.Hint.DayThreshold = clampInt(c.Hint.DayThreshold, 0, model.FinaleDay)
	c.NPCBase = clamp(c.NPCBase, 0, 10)
	c.SupportBase = clamp(c.SupportBase, 0, 10)
	c.Friend.EarlyStage = clamp(c.Friend.EarlyStage, 0, 10)
	c.Friend.LateStage = clamp(c.Friend.LateStage, 0, 10)
	c.Friend.WitMultiplier = clamp(c.Friend.WitMultiplier, 0, 10)

	// Rainbow multipliers never drop below 1 and never fall from early to late.
	c.Rainbow.PreDebut = clamp(c.Rainbow.PreDebut, 1, 10)
	c.Rainbow.Early = clamp(c.Rainbow.Early, 1, 10)
	c.Rainbow.Mid = clamp(c.Rainbow.Mid, c.Rainbow.Early, 10)
	c.Rainbow.Late = clamp(c.Rainbow.Late, c.Rainbow.Mid, 10)

	c.SupportCardBonus.ScoreBonus = clamp(c.SupportCardBonus.ScoreBonus, 0, 10)
	c.SupportCardBonus.ThresholdDay = clampInt(c.SupportCardBonus.ThresholdDay, 0, model.FinaleDay)
	c.SupportCardBonus.MaxBonusTypes = clampInt(c.SupportCardBonus.MaxBonusTypes, 0, len(model.AllStats))
	c.WitEarlyBonus = clamp(c.WitEarlyBonus, 0, 10)

	c.Energy.MinimumPercent = clamp(c.Energy.MinimumPercent, 0, 100)
	c.Energy.CriticalPercent = clamp(c.Energy.CriticalPercent, 0, c.Energy.MinimumPercent)
	c.Energy.MediumShortage = clamp(c.Energy.MediumShortage, 0, 100)
	c.Energy.MediumMaxScore = clamp(c.Energy.MediumMaxScore, 0, 100)
	c.Energy.WitRequiredPreDebut = clamp(c.Energy.WitRequiredPreDebut, 0, 100)
	c.Energy.WitRequiredAfterDebut = clamp(c.Energy.WitRequiredAfterDebut, 0, 100)

	if c.StatCaps == nil {
		c.StatCaps = make(map[model.Stat]int)
	}
	for _, s := range model.AllStats {
		if _, ok := c.StatCaps[s]; !ok {
			c.StatCaps[s] = 1200
		}
		c.StatCaps[s] = clampInt(c.StatCaps[s], 1, 9999)
	}
	c.StatCapDay = clampInt(c.StatCapDay, 0, model.FinaleDay)
	c.StatCapPenalty.MaxPercent = clamp(c.StatCapPenalty.MaxPercent, 0, 100)
	c.StatCapPenalty.StartPercent = clamp(c.StatCapPenalty.StartPercent, 0, 100)
	c.StatCapPenalty.StartGap = clampInt(c.StatCapPenalty.StartGap, 0, 9999)

	c.PriorityStats = normalizePriority(c.PriorityStats)
}

// normalizePriority drops unknown and duplicate stats, then appends any
// missing stats in default order so every stat has a priority index.
func normalizePriority(in []model.Stat) []model.Stat {
	seen := make(map[model.Stat]bool)
	out := make([]model.Stat, 0, len(model.AllStats))
	for _, s := range in {
		if s.Valid() && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range model.AllStats {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
