// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces and underscores (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)

	// Decompose, strip combining marks, recompose. Turns "Café" into "Cafe"
	// before the ASCII-only slug rules run.
	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify converts a human-chosen name to its canonical URL slug.
// Slugs identify collections and icons in URLs and are recomputed from
// the name on every save.
//
// Normalization rules:
//  1. Strip diacritics ("Café" → "Cafe")
//  2. Trim whitespace and lowercase
//  3. Replace spaces and underscores with dashes
//  4. Remove non-alphanumeric characters (except dashes)
//  5. Collapse multiple dashes, trim leading/trailing dashes
//
// Examples:
//
//	"Road Signs"    → "road-signs"
//	"road_signs"    → "road-signs"
//	"Crème Brûlée"  → "creme-brulee"
//	"  multi   word " → "multi-word"
func Slugify(input string) string {
	s, _, err := transform.String(deaccent, input)
	if err != nil {
		// Invalid UTF-8; the byte-level rules below still apply.
		s = input
	}

	s = strings.ToLower(strings.TrimSpace(s))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
