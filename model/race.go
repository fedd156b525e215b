package model

type Grade string

const (
	GradeG1      Grade = "g1"
	GradeG2      Grade = "g2"
	GradeG3      Grade = "g3"
	GradeOP      Grade = "op"
	GradeUnknown Grade = "unknown"
)

// Rank orders grades for sorting; lower is better.
func (g Grade) Rank() int {
	switch g {
	case GradeG1:
		return 0
	case GradeG2:
		return 1
	case GradeG3:
		return 2
	case GradeOP:
		return 3
	default:
		return 4
	}
}

type Track string

const (
	Turf Track = "turf"
	Dirt Track = "dirt"
)

type Distance string

const (
	Sprint Distance = "sprint"
	Mile   Distance = "mile"
	Medium Distance = "medium"
	Long   Distance = "long"
)

// RaceRecord is loaded once and never mutated. The *Text fields hold the raw
// catalog strings the enums were classified from.
type RaceRecord struct {
	Name         string   `json:"name" yaml:"name"`
	Year         string   `json:"year" yaml:"year"`
	Date         string   `json:"date" yaml:"date"`
	GradeText    string   `json:"grade" yaml:"grade"`
	TrackText    string   `json:"track" yaml:"track"`
	DistanceText string   `json:"distance" yaml:"distance"`
	Grade        Grade    `json:"-" yaml:"-"`
	Track        Track    `json:"-" yaml:"-"`
	Distance     Distance `json:"-" yaml:"-"`
}
