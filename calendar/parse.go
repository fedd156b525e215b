package calendar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nstehr/trackside/trackside-core/model"
)

var monthAbbrev = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// ocrFixes corrects frequent misreads of the date banner. Applied in order
// on the squashed text, longest patterns first.
var ocrFixes = []struct{ from, to string }{
	{"jLate", "Late"},
	{"jEarly", "Early"},
	{"Earlv", "Early"},
	{"Eariy", "Early"},
	{"Eary", "Early"},
	{"Latv", "Late"},
	{"Lale", "Late"},
	{"Classiv", "Classic"},
	{"Clasic", "Classic"},
	{"Ciassic", "Classic"},
	{"Glassic", "Classic"},
	{"Senlor", "Senior"},
	{"Seniom", "Senior"},
	{"Senor", "Senior"},
	{"Junlor", "Junior"},
	{"Yunior", "Junior"},
	{"Yean", "Year"},
	{"pul", "Jul"},
}

var (
	junk          = regexp.MustCompile(`[\\/|_\-+=\[\]{}()<>~` + "`" + `!@#$%^&*\s]`)
	preDebutRe    = regexp.MustCompile(`(?i)(junior|classic|senior)year(pre)debut`)
	datePatternRe = regexp.MustCompile(`(?i)(junior|classic|senior)year(early|late)([a-z]{3})`)
	yearRe        = regexp.MustCompile(`(?i)junior|classic|senior`)
	monthRe       = regexp.MustCompile(`(?i)jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`)
)

// Clean strips punctuation and whitespace and applies the OCR fix table.
func Clean(text string) string {
	s := junk.ReplaceAllString(text, "")
	for _, f := range ocrFixes {
		s = strings.ReplaceAll(s, f.from, f.to)
	}
	return s
}

// Parse classifies recognised banner text such as "Classic Year Early Jun",
// "Junior Year Pre-Debut" or "Finale Season".
func Parse(text string) (model.CareerDate, error) {
	s := Clean(text)
	lower := strings.ToLower(s)
	if strings.Contains(lower, "finale") || strings.Contains(lower, "finalseason") {
		return Finale(), nil
	}

	if m := preDebutRe.FindStringSubmatch(s); m != nil {
		return FromReading(RawDate{Year: parseYear(m[1]), PreDebut: true})
	}

	if m := datePatternRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthAbbrev[strings.ToLower(m[3])]; ok {
			return FromReading(RawDate{Year: parseYear(m[1]), Month: month, Period: parsePeriod(m[2])})
		}
	}

	// Last resort: any year and month tokens anywhere in the text.
	y := yearRe.FindString(s)
	mo := monthRe.FindString(yearRe.ReplaceAllString(s, ""))
	if y != "" && mo != "" {
		p := model.Early
		if strings.Contains(lower, "late") {
			p = model.Late
		}
		return FromReading(RawDate{Year: parseYear(y), Month: monthAbbrev[strings.ToLower(mo)], Period: p})
	}

	return model.CareerDate{}, fmt.Errorf("%w: %q", model.ErrDateParse, text)
}

func parseYear(s string) model.Year {
	switch strings.ToLower(s) {
	case "classic":
		return model.Classic
	case "senior":
		return model.Senior
	default:
		return model.Junior
	}
}

func parsePeriod(s string) model.Period {
	if strings.EqualFold(s, "late") {
		return model.Late
	}
	return model.Early
}

// ParseYear reads the first word of a catalog year such as "Classic Year".
func ParseYear(s string) (model.Year, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	switch strings.ToLower(fields[0]) {
	case "junior":
		return model.Junior, true
	case "classic":
		return model.Classic, true
	case "senior":
		return model.Senior, true
	}
	return 0, false
}

// ParseMonth accepts a full month name or its three-letter abbreviation.
func ParseMonth(s string) (int, bool) {
	if len(s) < 3 {
		return 0, false
	}
	m, ok := monthAbbrev[strings.ToLower(s[:3])]
	return m, ok
}

// MonthName returns the full English name of month m, or "" if out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// Format renders d the way the date banner shows it.
func Format(d model.CareerDate) string {
	switch {
	case d.Finale:
		return "Finale Season"
	case d.PreDebut:
		return fmt.Sprintf("%s Year Pre-Debut", d.Year)
	}
	name := MonthName(d.Month)
	if name == "" {
		return fmt.Sprintf("%s Year %s ?", d.Year, d.Period)
	}
	return fmt.Sprintf("%s Year %s %s", d.Year, d.Period, name[:3])
}
