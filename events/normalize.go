package events

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// decorative glyphs appear in event titles but are never read reliably.
const decorative = "★☆♪♫♬♡♥❤♦♢◆◇○●◎△▲▽▼□■※♠♤♣♧・…️"

func isDecorative(r rune) bool { return strings.ContainsRune(decorative, r) }

// Normalize applies NFKC, drops decorative glyphs, collapses whitespace and
// trims. Case is preserved; comparisons fold case separately.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case isDecorative(r):
			continue
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func matchKey(s string) string { return strings.ToLower(Normalize(s)) }
