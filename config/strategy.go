package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/races"
)

const DefaultStrategyName = "Train Score 2.5+"

// StrategyKind selects the top-level decision branch.
type StrategyKind int

const (
	// TrainScore trains when the best score clears Threshold.
	TrainScore StrategyKind = iota
	// RaceOnly races whenever a race of one of Grades is eligible.
	RaceOnly
)

// Strategy is a parsed priority-strategy preset.
type Strategy struct {
	Name      string
	Kind      StrategyKind
	Threshold float64
	Grades    []model.Grade
}

var trainScoreRe = regexp.MustCompile(`(?i)^train\s+score\s+([0-9]+(?:\.[0-9]+)?)\+?$`)

// ParseStrategy understands "G1 (no training)", "G2 (no training)" and
// "Train Score X+" for any numeric X.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.TrimSpace(name)
	lower := strings.ToLower(n)
	switch {
	case strings.HasPrefix(lower, "g1"):
		return Strategy{Name: n, Kind: RaceOnly, Grades: []model.Grade{model.GradeG1}}, nil
	case strings.HasPrefix(lower, "g2"):
		return Strategy{Name: n, Kind: RaceOnly, Grades: []model.Grade{model.GradeG1, model.GradeG2}}, nil
	}
	if m := trainScoreRe.FindStringSubmatch(n); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Strategy{}, fmt.Errorf("parse threshold %q: %w", m[1], err)
		}
		return Strategy{Name: n, Kind: TrainScore, Threshold: v}, nil
	}
	return Strategy{}, fmt.Errorf("%w: unknown priority strategy %q", model.ErrConfigMalformed, name)
}

// AcceptsGrade reports whether a RaceOnly strategy races grade g.
func (s Strategy) AcceptsGrade(g model.Grade) bool {
	for _, a := range s.Grades {
		if a == g {
			return true
		}
	}
	return false
}

type StopConditions struct {
	Enabled       bool       `yaml:"enable_stop_conditions" json:"enable_stop_conditions"`
	OnInfirmary   bool       `yaml:"stop_on_infirmary" json:"stop_on_infirmary"`
	OnNeedRest    bool       `yaml:"stop_on_need_rest" json:"stop_on_need_rest"`
	OnLowMood     bool       `yaml:"stop_on_low_mood" json:"stop_on_low_mood"`
	MoodThreshold model.Mood `yaml:"stop_mood_threshold" json:"stop_mood_threshold"`
	OnRaceDay     bool       `yaml:"stop_on_race_day" json:"stop_on_race_day"`
	BeforeSummer  bool       `yaml:"stop_before_summer" json:"stop_before_summer"`
	AtMonth       bool       `yaml:"stop_at_month" json:"stop_at_month"`
	TargetMonth   string     `yaml:"target_month" json:"target_month"`
	AfterDay      int        `yaml:"active_after_day" json:"active_after_day"`
}

// UnknownEventAction is the policy for events no pool matches.
type UnknownEventAction string

const (
	UnknownAutoFirst   UnknownEventAction = "auto_first"
	UnknownWaitManual  UnknownEventAction = "wait_manual"
	UnknownSearchOther UnknownEventAction = "search_other"
)

type EventSettings struct {
	AutoFirstChoice   bool               `yaml:"auto_first_choice" json:"auto_first_choice"`
	AutoEventMap      bool               `yaml:"auto_event_map" json:"auto_event_map"`
	UnknownAction     UnknownEventAction `yaml:"unknown_event_action" json:"unknown_event_action"`
	UmaMusume         string             `yaml:"uma_musume" json:"uma_musume"`
	SupportCards      []string           `yaml:"support_cards" json:"support_cards"`
	ManualWaitSeconds int                `yaml:"manual_event_max_wait_seconds" json:"manual_event_max_wait_seconds"`
}

const MaxSupportCards = 6

// StrategyConfig is owned by the controlling application and may be
// replaced at any time; the engine reads a fresh copy every tick.
type StrategyConfig struct {
	PriorityStrategy string           `yaml:"priority_strategy" json:"priority_strategy"`
	MinimumMood      model.Mood       `yaml:"minimum_mood" json:"minimum_mood"`
	Filters          races.Filters    `yaml:"filters" json:"filters"`
	Stop             StopConditions   `yaml:"stop_conditions" json:"stop_conditions"`
	Events           EventSettings    `yaml:"event_settings" json:"event_settings"`
	Loadout          []model.CardType `yaml:"support_card_types" json:"support_card_types"`
	MaxLobbyAttempts int              `yaml:"max_lobby_attempts" json:"max_lobby_attempts"`

	// AllowContinuousRacing false cancels a race when the game warns that
	// recent races were back to back.
	AllowContinuousRacing bool `yaml:"allow_continuous_racing" json:"allow_continuous_racing"`

	strategy Strategy
}

func DefaultStrategy() StrategyConfig {
	c := StrategyConfig{
		PriorityStrategy: DefaultStrategyName,
		MinimumMood:      model.MoodNormal,
		Filters:          races.DefaultFilters(),
		Stop: StopConditions{
			MoodThreshold: model.MoodBad,
			TargetMonth:   "Jun",
			AfterDay:      24,
		},
		Events: EventSettings{
			AutoFirstChoice:   true,
			AutoEventMap:      true,
			UnknownAction:     UnknownAutoFirst,
			UmaMusume:         "None",
			ManualWaitSeconds: 120,
		},
		MaxLobbyAttempts:      30,
		AllowContinuousRacing: true,
	}
	c.strategy, _ = ParseStrategy(DefaultStrategyName)
	return c
}

// Validate corrects the document in place. An unparseable strategy falls
// back to the default preset and is reported in the returned error.
func (c *StrategyConfig) Validate() error {
	var err error
	c.strategy, err = ParseStrategy(c.PriorityStrategy)
	if err != nil {
		c.PriorityStrategy = DefaultStrategyName
		c.strategy, _ = ParseStrategy(DefaultStrategyName)
	}

	switch c.Events.UnknownAction {
	case UnknownAutoFirst, UnknownWaitManual, UnknownSearchOther:
	default:
		c.Events.UnknownAction = UnknownAutoFirst
	}
	if len(c.Events.SupportCards) > MaxSupportCards {
		c.Events.SupportCards = c.Events.SupportCards[:MaxSupportCards]
	}
	if c.Events.UmaMusume == "" {
		c.Events.UmaMusume = "None"
	}
	c.Events.ManualWaitSeconds = clampInt(c.Events.ManualWaitSeconds, 1, 3600)
	c.Stop.AfterDay = clampInt(c.Stop.AfterDay, 0, model.TotalDays)
	c.MaxLobbyAttempts = clampInt(c.MaxLobbyAttempts, 1, 1000)
	if c.Filters.Track == nil || c.Filters.Distance == nil || c.Filters.Grade == nil {
		def := races.DefaultFilters()
		if c.Filters.Track == nil {
			c.Filters.Track = def.Track
		}
		if c.Filters.Distance == nil {
			c.Filters.Distance = def.Distance
		}
		if c.Filters.Grade == nil {
			c.Filters.Grade = def.Grade
		}
	}
	return err
}

// Strategy returns the parsed preset. Validate must have been called.
func (c StrategyConfig) Strategy() Strategy {
	if c.strategy.Name == "" {
		s, err := ParseStrategy(c.PriorityStrategy)
		if err != nil {
			s, _ = ParseStrategy(DefaultStrategyName)
		}
		return s
	}
	return c.strategy
}

// TargetMonthNumber resolves Stop.TargetMonth, or 0 if unset.
func (c StrategyConfig) TargetMonthNumber() int {
	s := strings.TrimSpace(c.Stop.TargetMonth)
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n
	}
	if len(s) < 3 {
		return 0
	}
	months := []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	prefix := strings.ToLower(s[:3])
	for i, m := range months {
		if m == prefix {
			return i + 1
		}
	}
	return 0
}
