package source

import (
	"regexp"
	"strings"
)

var (
	phonePattern    = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	districtPattern = regexp.MustCompile(`(?i)district[/\-\s]?(\d+)`)
)

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractPhone returns the first US phone number in s, or "".
func ExtractPhone(s string) string {
	return phonePattern.FindString(s)
}

// ExtractEmail returns the first email address in s, or "".
func ExtractEmail(s string) string {
	return emailPattern.FindString(s)
}

// ExtractDistrict returns the first "district N" number in s as a
// two-digit, zero-padded string, or "" when none is present.
func ExtractDistrict(s string) string {
	m := districtPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	d := strings.TrimLeft(m[1], "0")
	switch len(d) {
	case 0:
		return "00"
	case 1:
		return "0" + d
	default:
		return d
	}
}
