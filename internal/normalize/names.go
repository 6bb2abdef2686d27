package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiSpace = regexp.MustCompile(`\s+`)

// CollapseSpaces trims s and folds every whitespace run into one space.
func CollapseSpaces(s string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// StripAccents removes combining marks after canonical decomposition
// ("Quirúrgico" -> "Quirurgico", "Ñ" -> "N").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// HeaderKey is the comparison form of a column name: accent-free, lower case,
// single-spaced.
func HeaderKey(s string) string {
	return strings.ToLower(StripAccents(CollapseSpaces(s)))
}

// SameName compares two person names ignoring case, accents and spacing.
func SameName(a, b string) bool {
	return HeaderKey(a) == HeaderKey(b)
}
