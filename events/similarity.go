package events

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// DefaultThreshold is the base acceptance score before adjustment.
	DefaultThreshold = 0.7
	// MinThreshold is the floor AdaptiveThreshold never goes below.
	MinThreshold = 0.5

	sharedWordBonus    = 0.05
	sharedWordBonusCap = 0.15
)

// Similarity scores two event titles in [0,1]. Identical titles score 1.
func Similarity(a, b string) float64 {
	a, b = matchKey(a), matchKey(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	seq := difflib.NewMatcher(runeSeq(a), runeSeq(b)).Ratio()
	wa, wb := strings.Fields(a), strings.Fields(b)
	words := jaccard(set(wa), set(wb))
	chars := jaccard(charSet(a), charSet(b))

	bonus := 0.0
	for w := range sharedWords(wa, wb) {
		if utf8.RuneCountInString(w) >= 3 {
			bonus += sharedWordBonus
		}
	}
	bonus = min(bonus, sharedWordBonusCap)

	return max(0, min(1, 0.4*seq+0.4*words+0.2*chars+bonus))
}

// AdaptiveThreshold lowers base for titles that are likely to be misread:
// decorated or punctuated, containing digits, very different lengths, or
// sharing most of their words.
func AdaptiveThreshold(target, candidate string, base float64) float64 {
	t := base
	if hasDecoration(target) {
		t -= 0.1
	}
	if strings.ContainsFunc(target, unicode.IsDigit) {
		t -= 0.05
	}

	kt, kc := matchKey(target), matchKey(candidate)
	lt, lc := utf8.RuneCountInString(kt), utf8.RuneCountInString(kc)
	if lt > 0 && lc > 0 && float64(min(lt, lc))/float64(max(lt, lc)) < 0.6 {
		t -= 0.1
	}

	wt, wc := strings.Fields(kt), strings.Fields(kc)
	if n := min(len(wt), len(wc)); n > 0 {
		if float64(len(sharedWords(wt, wc)))/float64(n) >= 0.5 {
			t -= 0.05
		}
	}
	return max(t, MinThreshold)
}

func hasDecoration(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return isDecorative(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

func runeSeq(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func set(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func charSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, r := range s {
		if !unicode.IsSpace(r) {
			m[string(r)] = struct{}{}
		}
	}
	return m
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func sharedWords(a, b []string) map[string]struct{} {
	sb := set(b)
	out := make(map[string]struct{})
	for _, w := range a {
		if _, ok := sb[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}
