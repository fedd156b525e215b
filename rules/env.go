package rules

import (
	"slices"
	"strings"

	"github.com/nstehr/trackside/trackside-core/model"
)

// Sensors supplies the readings a rule may need. Each function is called at
// most once per Env, and only if a condition actually asks for it.
type Sensors struct {
	Day       func() int
	Energy    func() (current, max float64)
	Mood      func() model.Mood
	Character string
}

type readings struct {
	sensors Sensors

	dayRead    bool
	day        int
	energyRead bool
	current    float64
	max        float64
	moodRead   bool
	mood       model.Mood
}

// RuleEnv exposes helper methods callable from expr expressions. It is
// passed by value, so the memoised readings live behind a pointer.
type RuleEnv struct {
	r *readings
}

// NewEnv wraps s. Missing sensor functions fall back to the documented
// defaults: day 0, energy 100/100, mood unknown.
func NewEnv(s Sensors) RuleEnv {
	return RuleEnv{r: &readings{sensors: s}}
}

func (e RuleEnv) Day() int {
	if e.r == nil {
		return 0
	}
	if !e.r.dayRead {
		e.r.dayRead = true
		if e.r.sensors.Day != nil {
			e.r.day = e.r.sensors.Day()
		}
	}
	return e.r.day
}

func (e RuleEnv) readEnergy() {
	if e.r.energyRead {
		return
	}
	e.r.energyRead = true
	e.r.current, e.r.max = 100, 100
	if e.r.sensors.Energy != nil {
		e.r.current, e.r.max = e.r.sensors.Energy()
	}
	if e.r.max <= 0 {
		e.r.max = 100
	}
}

// Energy is current energy as a percentage of max.
func (e RuleEnv) Energy() float64 {
	if e.r == nil {
		return 100
	}
	e.readEnergy()
	return e.r.current / e.r.max * 100
}

// EnergyShortage is max minus current energy.
func (e RuleEnv) EnergyShortage() float64 {
	if e.r == nil {
		return 0
	}
	e.readEnergy()
	return e.r.max - e.r.current
}

func (e RuleEnv) mood() model.Mood {
	if e.r == nil {
		return model.MoodUnknown
	}
	if !e.r.moodRead {
		e.r.moodRead = true
		if e.r.sensors.Mood != nil {
			e.r.mood = e.r.sensors.Mood()
		}
	}
	return e.r.mood
}

// MoodBelow is false when either mood is unknown.
func (e RuleEnv) MoodBelow(name string) bool {
	return e.mood().Less(model.ParseMood(name))
}

// MoodAtLeast is false when either mood is unknown.
func (e RuleEnv) MoodAtLeast(name string) bool {
	return e.mood().AtLeast(model.ParseMood(name))
}

func (e RuleEnv) Character() string {
	if e.r == nil {
		return ""
	}
	return e.r.sensors.Character
}

// CharacterIs compares case-insensitively.
func (e RuleEnv) CharacterIs(name string) bool {
	return strings.EqualFold(strings.TrimSpace(e.Character()), strings.TrimSpace(name))
}

// CharacterIn reports whether the character matches any listed name. expr
// hands array literals over as []any.
func (e RuleEnv) CharacterIn(names []any) bool {
	return slices.ContainsFunc(names, func(n any) bool {
		s, ok := n.(string)
		return ok && e.CharacterIs(s)
	})
}

// Read lists which lazy sensors have been consulted, in a fixed order.
func (e RuleEnv) Read() []string {
	if e.r == nil {
		return nil
	}
	var out []string
	if e.r.dayRead {
		out = append(out, "day")
	}
	if e.r.energyRead {
		out = append(out, "energy")
	}
	if e.r.moodRead {
		out = append(out, "mood")
	}
	return out
}
