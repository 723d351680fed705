// internal/rules/rules.go
//
// Coursedesk – Validation ruleset: value-shape predicates.
//
// Context
//   Every form in the client (login, signup, review, …) composes the same
//   handful of checks into its own validation function.  The checks below are
//   pure predicates with no shared state, so any number of controllers may
//   call them concurrently.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package rules

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10,15}$`)
	digitRegex = regexp.MustCompile(`[0-9]`)
	alphaRegex = regexp.MustCompile(`[a-zA-Z]`)

	// Characters ignored when validating a phone number.
	phoneNoise = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "")
)

// MinPasswordLength is the shortest password IsStrongPassword accepts.
const MinPasswordLength = 8

// IsNotEmpty reports whether v is set and, once rendered as text, is not
// blank after trimming whitespace.
func IsNotEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case *string:
		return t != nil && strings.TrimSpace(*t) != ""
	default:
		return strings.TrimSpace(fmt.Sprint(t)) != ""
	}
}

// IsValidEmail matches a permissive local@domain.tld shape.  It does not try
// to be RFC 5322 complete; the server has the final word.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidPhone strips spaces, parentheses, and hyphens, then requires 10 to
// 15 digits.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phoneNoise.Replace(phone))
}

// NormalizePhone drops the characters IsValidPhone ignores, leaving the
// digits to send upstream.
func NormalizePhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}

// IsStrongPassword requires at least MinPasswordLength characters, one digit,
// and one ASCII letter.
func IsStrongPassword(password string) bool {
	return len(password) >= MinPasswordLength &&
		digitRegex.MatchString(password) &&
		alphaRegex.MatchString(password)
}

// PasswordsMatch reports strict equality.
func PasswordsMatch(password, confirm string) bool {
	return password == confirm
}
