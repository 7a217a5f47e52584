package tagger

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeText lowercases, strips diacritics (decompose, drop nonspacing
// marks, recompose), and collapses whitespace. All free text leaving the
// tagger goes through this so stored tags compare bytewise downstream.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, err := transform.String(t, s)
	if err == nil {
		s = ascii
	}
	return strings.Join(strings.Fields(s), " ")
}

func normalizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = normalizeText(s)
	}
	return out
}
