package core

// convert.go coerces trimmed CSV cells into prospect field values.
//
// Coercion never fails. A value that cannot be read becomes the field's
// zero value, and judging whether that is acceptable is left to validation:
//   - Numbers keep digits, separators and a sign, so "-5" survives to be rejected later
//   - Phones keep digits and '+'
//   - Postal codes keep digits only
//   - Dates accept ISO timestamps and common day-first layouts

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// truthyTokens are the lower-cased values read as true. Anything else is false.
var truthyTokens = map[string]bool{
	"true": true,
	"oui":  true,
	"1":    true,
	"yes":  true,
	"vrai": true,
}

// numberPrefixRegex matches the longest leading decimal number of a cleaned value.
var numberPrefixRegex = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

// dateLayouts are tried in order. Day-first layouts come before month-first
// ones since imports are French spreadsheets.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
}

// CoerceBool reports whether s is one of the accepted truthy tokens.
func CoerceBool(s string) bool {
	return truthyTokens[strings.ToLower(strings.TrimSpace(s))]
}

// CoerceNumber reads a currency or numeric cell. Everything except digits,
// '.', ',' and '-' is dropped, the first comma becomes the decimal point,
// and the longest leading number is parsed. Unreadable input yields 0.
//
//	CoerceNumber("1 234,56€") == 1234.56
//	CoerceNumber("abc")       == 0
func CoerceNumber(s string) float64 {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Replace(b.String(), ",", ".", 1)

	m := numberPrefixRegex.FindString(cleaned)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// CoercePhone keeps only digits and '+'.
func CoercePhone(s string) string {
	return keepRunes(s, func(r rune) bool { return (r >= '0' && r <= '9') || r == '+' })
}

// CoerceEmail lower-cases s. Format is checked during validation.
func CoerceEmail(s string) string {
	return strings.ToLower(s)
}

// CoercePostalCode keeps only digits.
func CoercePostalCode(s string) string {
	return keepRunes(s, func(r rune) bool { return r >= '0' && r <= '9' })
}

// DepartmentOf returns the department derived from a postal code, or "" if
// the code is shorter than two digits.
func DepartmentOf(postal string) string {
	if len(postal) < 2 {
		return ""
	}
	return postal[:2]
}

// ParseDate parses s using the known layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func keepRunes(s string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
