package races

import (
	"strings"

	"github.com/nstehr/trackside/trackside-core/model"
)

// ClassifyTrack returns Dirt when the text mentions dirt, otherwise Turf.
func ClassifyTrack(text string) model.Track {
	if strings.Contains(strings.ToLower(text), "dirt") {
		return model.Dirt
	}
	return model.Turf
}

var distanceBuckets = []struct {
	d       model.Distance
	lengths []string
}{
	{model.Sprint, []string{"1000", "1200", "1400"}},
	{model.Mile, []string{"1600", "1700", "1800"}},
	{model.Medium, []string{"2000", "2100", "2200", "2400"}},
	{model.Long, []string{"2500", "2600", "3000", "3200", "3400", "3600"}},
}

// ClassifyDistance prefers an explicit keyword, then falls back to the
// metre figure. Unrecognised text is a sprint.
func ClassifyDistance(text string) model.Distance {
	s := strings.ToLower(text)
	switch {
	case strings.Contains(s, "sprint"):
		return model.Sprint
	case strings.Contains(s, "mile") && !strings.Contains(s, "medium") && !strings.Contains(s, "long"):
		return model.Mile
	case strings.Contains(s, "medium"):
		return model.Medium
	case strings.Contains(s, "long"):
		return model.Long
	}
	for _, b := range distanceBuckets {
		for _, l := range b.lengths {
			if strings.Contains(s, l) {
				return b.d
			}
		}
	}
	return model.Sprint
}

// ClassifyGrade matches g1/g2/g3/op substrings, case-insensitively.
func ClassifyGrade(text string) model.Grade {
	s := strings.ToLower(text)
	switch {
	case strings.Contains(s, "g1"):
		return model.GradeG1
	case strings.Contains(s, "g2"):
		return model.GradeG2
	case strings.Contains(s, "g3"):
		return model.GradeG3
	case strings.Contains(s, "op"):
		return model.GradeOP
	}
	return model.GradeUnknown
}

// Classify fills the enum fields of r from its raw text fields.
func Classify(r model.RaceRecord) model.RaceRecord {
	r.Track = ClassifyTrack(r.TrackText)
	r.Distance = ClassifyDistance(r.DistanceText)
	r.Grade = ClassifyGrade(r.GradeText)
	return r
}
