// Package match pairs sanctioned line items with bill line items by
// key-word overlap.
package match

import (
	"strings"
	"unicode/utf8"
)

// Matcher decides whether a bill description names a sanctioned item.
type Matcher struct {
	// ThresholdPercent is the share of key words that must be found,
	// rounded up. Default 60.
	ThresholdPercent int
	// MinKeyWordLen is the minimum rune length of a key word. Default 4.
	MinKeyWordLen int
}

// Default returns the standard matcher: 60% of words longer than 3 runes.
func Default() Matcher {
	return Matcher{ThresholdPercent: 60, MinKeyWordLen: 4}
}

// Matches reports whether description names sanctionedName, using the
// default matcher.
func Matches(sanctionedName, description string) bool {
	return Default().Matches(sanctionedName, description)
}

// Find returns the index of the first description matching sanctionedName,
// using the default matcher.
func Find(sanctionedName string, descriptions []string) (int, bool) {
	return Default().Find(sanctionedName, descriptions)
}

// KeyWords returns the lower-cased whitespace tokens of name that are long
// enough to count.
func (m Matcher) KeyWords(name string) []string {
	var out []string
	for _, w := range tokenize(name) {
		if utf8.RuneCountInString(w) >= m.MinKeyWordLen {
			out = append(out, w)
		}
	}
	return out
}

// Required returns ceil(ThresholdPercent% of n) without floating point.
func (m Matcher) Required(n int) int {
	return (m.ThresholdPercent*n + 99) / 100
}

// Matches reports whether enough key words of sanctionedName occur in
// description. A key word occurs when it is a substring of a description
// token or contains one. A name with no key words needs none, so it matches
// any description.
func (m Matcher) Matches(sanctionedName, description string) bool {
	keys := m.KeyWords(sanctionedName)
	billWords := tokenize(description)

	found := 0
	for _, k := range keys {
		for _, b := range billWords {
			if strings.Contains(b, k) || strings.Contains(k, b) {
				found++
				break
			}
		}
	}
	return found >= m.Required(len(keys))
}

// Find scans descriptions in order and returns the first match.
func (m Matcher) Find(sanctionedName string, descriptions []string) (int, bool) {
	for i, d := range descriptions {
		if m.Matches(sanctionedName, d) {
			return i, true
		}
	}
	return -1, false
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
