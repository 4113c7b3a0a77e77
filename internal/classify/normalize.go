// Package classify infers the service type of a car wash from its name,
// category tags and address using weighted keyword matching.
package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize strips diacritics from s: canonical decomposition followed by
// removal of combining marks. Case is preserved. Normalizing an already
// normalized string returns it unchanged.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// fold is Normalize followed by lower-casing; all matching happens on folded text.
func fold(s string) string {
	return strings.ToLower(Normalize(s))
}
