package contactinfo

import (
	"regexp"
	"strings"

	"github.com/asaskevich/govalidator"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// testEmails are placeholder addresses typed into forms during QA.
var testEmails = map[string]bool{
	"aa@aaa.aaaa":      true,
	"aaa.aaa@aaa.aaa":  true,
	"aaa.aaa@aaa.com":  true,
	"aaa.aaaa@aaa.aaa": true,
	"aa@aa.com":        true,
	"aa@aa.ss":         true,
	"aa@aaa.aaa":       true,
	"aaaa@naver.com":   true,
	"ggg@ggg.gg":       true,
	"hh@hh.hh":         true,
	"hh@hh.hhg":        true,
	"hsg@gg.gg":        true,
}

// IsValidEmail reports whether s is a deliverable-looking address.
// Rejects doubled @, embedded whitespace, leading/trailing @ or dot and
// anything without exactly one @ before applying the address pattern.
func IsValidEmail(s string) bool {
	email := strings.TrimSpace(s)
	if email == "" {
		return false
	}
	if strings.Contains(email, "@@") || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	if strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") ||
		strings.HasPrefix(email, ".") || strings.HasSuffix(email, ".") {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	return emailPattern.MatchString(email) && govalidator.IsEmail(email)
}

// IsTestEmail reports whether s is one of the known QA placeholder addresses.
func IsTestEmail(s string) bool {
	return testEmails[strings.ToLower(strings.TrimSpace(s))]
}

// CleanEmail returns the trimmed address when valid and not a test
// placeholder, otherwise "".
func CleanEmail(s string) string {
	email := strings.TrimSpace(s)
	if !IsValidEmail(email) || IsTestEmail(email) {
		return ""
	}
	return email
}
