// Package contactinfo holds the phone and email normalization rules shared by
// every form handler and maintenance command.
package contactinfo

import (
	"regexp"
	"strings"
)

var (
	phoneStripChars = regexp.MustCompile(`[\s\-+(),]`)
	nonDigits       = regexp.MustCompile(`\D`)
	mobilePattern   = regexp.MustCompile(`^010\d{8}$`)
	embeddedMobile  = regexp.MustCompile(`(010|011|016|017|018|019)[-\s]?\d{3,4}[-\s]?\d{4}`)
)

// NormalizePhone converts a Korean mobile number to its 11-digit 010 form.
// Accepted inputs include "+82 10-1234-5678", "010 1234 5678", "01-1234-5678"
// (10 digits starting 01) and "1012345678" (10 digits starting 10).
// PRE: none
// POST: ok is true only when the result matches ^010\d{8}$
func NormalizePhone(raw string) (string, bool) {
	s := phoneStripChars.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return "", false
	}

	if strings.HasPrefix(s, "82") {
		s = "0" + s[2:]
	}
	if strings.HasPrefix(s, "01") && len(s) == 10 {
		s = "010" + s[2:]
	} else if strings.HasPrefix(s, "10") && len(s) == 10 {
		s = "0" + s
	}

	if !mobilePattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// NormalizePhoneLoose strips everything but digits and rewrites a leading 82
// country code to 0. Landlines and short numbers pass through.
func NormalizePhoneLoose(raw string) string {
	s := nonDigits.ReplaceAllString(raw, "")
	if strings.HasPrefix(s, "82") {
		s = "0" + s[2:]
	}
	return s
}

// FormatPhone renders digits with hyphens: 11 digits as 3-4-4, 10 digits as
// 3-3-4 (or 2-4-4 for Seoul 02 numbers). Other lengths are returned unchanged.
func FormatPhone(digits string) string {
	switch {
	case len(digits) == 11:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	case len(digits) == 10 && strings.HasPrefix(digits, "02"):
		return digits[:2] + "-" + digits[2:6] + "-" + digits[6:]
	case len(digits) == 10:
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	default:
		return digits
	}
}

// ExtractPhones finds mobile numbers embedded in free text, formats 11-digit
// numbers as 3-4-4 and drops repeats while keeping first-seen order.
func ExtractPhones(text string) []string {
	matches := embeddedMobile.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		digits := nonDigits.ReplaceAllString(m, "")
		formatted := FormatPhone(digits)
		if seen[formatted] {
			continue
		}
		seen[formatted] = true
		out = append(out, formatted)
	}
	return out
}

// SamePhone reports whether two inputs normalize to the same number.
// Numbers that fail strict normalization are compared digit-for-digit.
func SamePhone(a, b string) bool {
	return PhoneKey(a) == PhoneKey(b)
}

// PhoneKey returns the grouping key used for de-duplication: the strict form
// when valid, otherwise the loose digit string.
func PhoneKey(raw string) string {
	if n, ok := NormalizePhone(raw); ok {
		return n
	}
	return NormalizePhoneLoose(raw)
}
