// Package slug derives URL-safe identifiers from display titles. Products and
// categories both use these slugs as their reconciliation identity, so the
// transform must stay deterministic and idempotent.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Make lowercases the title, strips diacritics, collapses every run of
// non-alphanumeric characters into a single hyphen, and trims hyphens from
// both ends. Applying Make to its own output is a no-op.
func Make(title string) string {
	lowered := strings.ToLower(title)
	flattened, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw input
		// so a bad byte never blocks an import.
		flattened = lowered
	}

	var b strings.Builder
	b.Grow(len(flattened))
	pendingHyphen := false
	for _, r := range flattened {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
