// Package calendar classifies raw date readings into career days and stages.
package calendar

import (
	"fmt"

	"github.com/nstehr/trackside/trackside-core/model"
)

// Stage is the coarse phase of the career, derived from the absolute day.
type Stage string

const (
	PreDebut Stage = "pre_debut"
	Early    Stage = "early"
	Mid      Stage = "mid"
	Late     Stage = "late"
)

// Thresholds are the inclusive last days of the first three stages.
type Thresholds struct {
	PreDebut int `yaml:"pre_debut" json:"pre_debut"`
	Early    int `yaml:"early" json:"early"`
	Mid      int `yaml:"mid" json:"mid"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{PreDebut: 16, Early: 24, Mid: 48}
}

// Ordered reports whether PreDebut <= Early <= Mid.
func (t Thresholds) Ordered() bool {
	return t.PreDebut <= t.Early && t.Early <= t.Mid
}

// RawDate is a date reading as delivered by the perception adapter.
type RawDate struct {
	Year     model.Year
	Month    int
	Period   model.Period
	PreDebut bool
	Finale   bool
}

// FromReading validates r and computes its absolute day.
func FromReading(r RawDate) (model.CareerDate, error) {
	if r.Finale {
		return Finale(), nil
	}
	if r.Year > model.Senior {
		return model.CareerDate{}, fmt.Errorf("%w: year index %d", model.ErrDateParse, r.Year)
	}
	if r.PreDebut {
		return model.CareerDate{
			Year:        r.Year,
			AbsoluteDay: int(r.Year)*model.DaysPerYear + 1,
			PreDebut:    true,
		}, nil
	}
	if r.Month < 1 || r.Month > 12 {
		return model.CareerDate{}, fmt.Errorf("%w: month %d", model.ErrDateParse, r.Month)
	}
	if r.Period != model.Early && r.Period != model.Late {
		return model.CareerDate{}, fmt.Errorf("%w: period %d", model.ErrDateParse, r.Period)
	}
	return model.CareerDate{
		Year:        r.Year,
		Month:       r.Month,
		Period:      r.Period,
		AbsoluteDay: AbsoluteDay(r.Year, r.Month, r.Period),
	}, nil
}

// AbsoluteDay maps a year, month and period to the 1..72 career index.
func AbsoluteDay(y model.Year, month int, p model.Period) int {
	d := int(y)*model.DaysPerYear + (month-1)*2 + 1
	if p == model.Late {
		d++
	}
	return d
}

// Finale is the fixed post-career date.
func Finale() model.CareerDate {
	return model.CareerDate{Year: model.Senior, Month: 13, AbsoluteDay: model.FinaleDay, Finale: true}
}

// Fallback is substituted when the date cannot be read. It carries no month,
// so no race ever matches it.
func Fallback() model.CareerDate {
	return model.CareerDate{Year: model.Classic, AbsoluteDay: 50}
}

// StageOf classifies an absolute day with the given thresholds.
func StageOf(day int, t Thresholds) Stage {
	switch {
	case day <= t.PreDebut:
		return PreDebut
	case day <= t.Early:
		return Early
	case day <= t.Mid:
		return Mid
	default:
		return Late
	}
}

// DateStage is StageOf with the pre-debut flag taking precedence.
func DateStage(d model.CareerDate, t Thresholds) Stage {
	if d.PreDebut {
		return PreDebut
	}
	if d.Finale {
		return Late
	}
	return StageOf(d.AbsoluteDay, t)
}

// RaceDayNumber is the day number races use for a period: 1 early, 2 late.
func RaceDayNumber(p model.Period) int {
	if p == model.Late {
		return 2
	}
	return 1
}

// IsRestricted reports whether racing is disallowed on d: during pre-debut,
// the first 16 days of each year, July 1 through August 2, and the finale.
func IsRestricted(d model.CareerDate) bool {
	if d.PreDebut || d.Finale {
		return true
	}
	if d.AbsoluteDay >= d.YearStart() && d.AbsoluteDay <= d.YearStart()+15 {
		return true
	}
	if d.Month == 7 {
		return true
	}
	if d.Month == 8 && RaceDayNumber(d.Period) <= 2 {
		return true
	}
	return false
}
