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
	// Matches anything that is not a word character, whitespace or dash.
	disallowedRe = regexp.MustCompile(`[^\w\s-]`)
	// Matches runs of whitespace and dashes.
	separatorRe = regexp.MustCompile(`[-\s]+`)
)

// asciiFold decomposes accented characters and drops everything outside ASCII,
// so "Café" becomes "Cafe" and emoji disappear.
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// Slugify converts a tag name into its URL-safe slug.
//
// Rules:
//  1. Decompose to NFKD and drop non-ASCII runes
//  2. Lowercase
//  3. Remove characters other than letters, digits, underscores, whitespace and dashes
//  4. Collapse whitespace/dash runs into a single dash
//  5. Trim leading/trailing dashes and underscores
//
// Examples:
//
//	"Nature Shots"      → "nature-shots"
//	"  Café  Crème "    → "cafe-creme"
//	"🐉 Dragons!"       → "dragons"
//	"black_and_white"   → "black_and_white"
//	"--leading--"       → "leading"
func Slugify(input string) string {
	s, _, err := transform.String(asciiFold, input)
	if err != nil {
		s = input
	}

	s = strings.ToLower(s)
	s = disallowedRe.ReplaceAllString(s, "")
	s = separatorRe.ReplaceAllString(s, "-")

	return strings.Trim(s, "-_")
}
