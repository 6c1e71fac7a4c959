// Package normalize canonicalizes license numbers before any comparison.
//
// Scanned and hand-typed input for the same license differs in whitespace and
// dash characters (QR payloads copied through chat apps pick up typographic
// dashes, scanners pad with spaces). Canonicalization is the only mechanism by
// which lookups tolerate that variance; stores hold the canonical form and
// lookups are exact-match.
package normalize

import (
	"strings"
	"unicode"
)

// dashFold maps Unicode dash-like code points to an ASCII hyphen. Covers the
// hyphen/dash block U+2010..U+2015 and the minus sign U+2212.
var dashFold = map[rune]bool{
	'‐': true, // hyphen
	'‑': true, // non-breaking hyphen
	'‒': true, // figure dash
	'–': true, // en dash
	'—': true, // em dash
	'―': true, // horizontal bar
	'−': true, // minus sign
}

// License returns the canonical form of a raw license number: surrounding
// whitespace trimmed, letters uppercased, dash variants folded to '-', and all
// remaining whitespace removed.
//
// License is pure, total and idempotent: License(License(s)) == License(s).
func License(raw string) string {
	s := strings.TrimSpace(raw)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case dashFold[r]:
			b.WriteRune('-')
		case unicode.IsSpace(r):
			// dropped
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		default:
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
