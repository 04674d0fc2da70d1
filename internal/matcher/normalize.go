package matcher

import (
	"strings"
	"unicode"
)

// Normalize trims and lowercases s, turns every rune that is not a letter,
// digit or whitespace into a space, and collapses whitespace runs.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
