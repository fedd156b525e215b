package model

// Year is the career year. Values are the zero-based year index.
type Year byte

const (
	Junior  Year = 0
	Classic Year = 1
	Senior  Year = 2
)

func (y Year) String() string {
	switch y {
	case Junior:
		return "Junior"
	case Classic:
		return "Classic"
	case Senior:
		return "Senior"
	default:
		return "Unknown"
	}
}

// Period splits each month into two turns.
type Period byte

const (
	Early Period = 0
	Late  Period = 1
)

func (p Period) String() string {
	if p == Late {
		return "Late"
	}
	return "Early"
}

const (
	DaysPerYear = 24
	TotalDays   = 72
	FinaleDay   = TotalDays + 1
)

// CareerDate is an immutable, fully classified date.
type CareerDate struct {
	Year        Year   `json:"year"`
	Month       int    `json:"month"`
	Period      Period `json:"period"`
	AbsoluteDay int    `json:"absoluteDay"`
	PreDebut    bool   `json:"preDebut"`
	Finale      bool   `json:"finale"`
}

// YearStart is the absolute day of the first turn of the date's year.
func (d CareerDate) YearStart() int {
	return int(d.Year)*DaysPerYear + 1
}

// IsSummer reports whether the date falls in July or August.
func (d CareerDate) IsSummer() bool {
	return !d.PreDebut && !d.Finale && (d.Month == 7 || d.Month == 8)
}
