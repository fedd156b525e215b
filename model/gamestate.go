package model

import "strings"

// Mood is the character's condition reading. Unknown sorts nowhere: every
// ordered comparison involving Unknown is false.
type Mood byte

const (
	MoodUnknown Mood = 0
	MoodAwful   Mood = 1
	MoodBad     Mood = 2
	MoodNormal  Mood = 3
	MoodGood    Mood = 4
	MoodGreat   Mood = 5
)

var moodNames = map[Mood]string{
	MoodUnknown: "UNKNOWN",
	MoodAwful:   "AWFUL",
	MoodBad:     "BAD",
	MoodNormal:  "NORMAL",
	MoodGood:    "GOOD",
	MoodGreat:   "GREAT",
}

func (m Mood) String() string {
	if s, ok := moodNames[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// Known reports whether m is one of the five ordered moods.
func (m Mood) Known() bool { return m >= MoodAwful && m <= MoodGreat }

// Less reports m < other. False if either side is unknown.
func (m Mood) Less(other Mood) bool {
	return m.Known() && other.Known() && m < other
}

// AtLeast reports m >= other. False if either side is unknown.
func (m Mood) AtLeast(other Mood) bool {
	return m.Known() && other.Known() && m >= other
}

// ParseMood accepts any case; unrecognised text yields MoodUnknown.
func ParseMood(s string) Mood {
	s = strings.ToUpper(strings.TrimSpace(s))
	for m, name := range moodNames {
		if name == s {
			return m
		}
	}
	return MoodUnknown
}

func (m Mood) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mood) UnmarshalText(b []byte) error {
	*m = ParseMood(string(b))
	return nil
}

// Turn is either the number of turns left before the next objective, or the
// race-day sentinel.
type Turn struct {
	Days    int  `json:"days"`
	RaceDay bool `json:"raceDay"`
}

// GameStateSnapshot is rebuilt every tick and never persisted.
type GameStateSnapshot struct {
	Mood          Mood         `json:"mood"`
	EnergyCurrent float64      `json:"energyCurrent"`
	EnergyMax     float64      `json:"energyMax"`
	Turn          Turn         `json:"turn"`
	Date          CareerDate   `json:"date"`
	Stats         map[Stat]int `json:"stats,omitempty"`
}

// NewSnapshot clamps energy to 0..100 with current never above max.
func NewSnapshot(mood Mood, current, max float64, turn Turn, date CareerDate) GameStateSnapshot {
	max = clampEnergy(max)
	if max == 0 {
		max = 100
	}
	current = clampEnergy(current)
	if current > max {
		current = max
	}
	return GameStateSnapshot{
		Mood:          mood,
		EnergyCurrent: current,
		EnergyMax:     max,
		Turn:          turn,
		Date:          date,
	}
}

// EnergyShortage is max minus current.
func (s GameStateSnapshot) EnergyShortage() float64 {
	return s.EnergyMax - s.EnergyCurrent
}

// EnergyPercent is current as a percentage of max.
func (s GameStateSnapshot) EnergyPercent() float64 {
	if s.EnergyMax <= 0 {
		return 0
	}
	return s.EnergyCurrent / s.EnergyMax * 100
}

func clampEnergy(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
