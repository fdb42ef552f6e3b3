package lists

import (
	"regexp"
	"unicode/utf8"
)

// Name length bounds, in characters.
const (
	MinNameLength = 3
	MaxNameLength = 64
)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeName replaces every run of whitespace with '-' and truncates the
// result to MaxNameLength characters.
func NormalizeName(name string) string {
	name = whitespace.ReplaceAllString(name, "-")
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	return string([]rune(name)[:MaxNameLength])
}
