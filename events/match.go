package events

import "github.com/nstehr/trackside/trackside-core/model"

// Match is the best accepted candidate for a title.
type Match struct {
	Event     model.EventRecord
	Score     float64
	Threshold float64
}

// BestMatch scans records for the highest-scoring candidate whose score
// meets its adaptive threshold. Earlier records win ties.
func BestMatch(name string, records []model.EventRecord, base float64) (Match, bool) {
	var best Match
	found := false
	for _, rec := range records {
		candidate := rec.NormalizedName
		if candidate == "" {
			candidate = Normalize(rec.Name)
		}
		score := Similarity(name, candidate)
		threshold := AdaptiveThreshold(name, candidate, base)
		if score < threshold {
			continue
		}
		if !found || score > best.Score {
			best = Match{Event: rec, Score: score, Threshold: threshold}
			found = true
		}
	}
	return best, found
}
