package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	allDigits       = regexp.MustCompile(`^[0-9]+$`)
	// dashSplit matches the first hyphen, en-dash or em-dash with optional
	// surrounding whitespace.
	dashSplit = regexp.MustCompile(`\s*[-–—]\s*`)
	// numericToken is a code such as "150101" or "03.01.02".
	numericToken = regexp.MustCompile(`^[0-9.]+$`)
)

// CanonicalCode trims and uppercases a code. This is the exact-match key.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeCode strips punctuation and whitespace, uppercases, and collapses
// leading zeros of purely numeric codes ("0138" -> "138", "00" -> "0").
func NormalizeCode(code string) string {
	s := nonAlphanumeric.ReplaceAllString(strings.ToUpper(code), "")
	if s == "" {
		return ""
	}
	if allDigits.MatchString(s) {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
	}
	return s
}

// SplitCodeDescription extracts (code, description) from a procedure cell:
// split on the first dash-like character, else take a leading numeric token
// when there are at least two tokens, else the whole cell is both.
func SplitCodeDescription(cell string) (code, description string) {
	cell = CollapseSpaces(cell)
	if cell == "" {
		return "", ""
	}
	if loc := dashSplit.FindStringIndex(cell); loc != nil {
		return strings.TrimSpace(cell[:loc[0]]), strings.TrimSpace(cell[loc[1]:])
	}
	fields := strings.Fields(cell)
	if len(fields) >= 2 && numericToken.MatchString(fields[0]) {
		return fields[0], strings.Join(fields[1:], " ")
	}
	return cell, cell
}

// Fingerprint reduces a description to its accent-free uppercase alphanumeric
// core, after dropping a leading code-like prefix.
func Fingerprint(description string) string {
	_, desc := SplitCodeDescription(description)
	desc = strings.ToUpper(StripAccents(desc))
	return nonAlphanumeric.ReplaceAllString(desc, "")
}
