// Package normalize cleans upstream labels (player and team names) before they reach a CSV cell
// Pipeline order
// 1 drop controls and invalid UTF-8
// 2 Unicode NFC composition
// 3 remove format chars (ZWSP, ZWJ, BOM)
// 4 collapse whitespace to single spaces and trim
//
// NFC rather than NFKC so diacritics and letterforms in names survive unchanged
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
		)
	},
}

// Label returns the cleaned form of s; it is idempotent
func Label(s string) string {
	if s == "" {
		return ""
	}

	s = Sanitize(s)

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = s
	}

	return collapseSpaces(ns)
}

// collapseSpaces turns every whitespace run into one ASCII space and trims the edges
func collapseSpaces(s string) string { return strings.Join(strings.Fields(s), " ") }
