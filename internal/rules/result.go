// internal/rules/result.go
//
// Coursedesk – Validation ruleset: outcome packaging and composition.
//
// Context
//   A form's validation function returns a Result.  Errors maps a field name
//   to one human-readable message; a missing key means the field is fine.
//   Check composes per-field rule lists the way every form in the client
//   does it: fields are evaluated independently, and within a field the
//   first failing rule wins.
//
//------------------------------------------------------------------------------

package rules

import (
	"maps"
	"slices"
	"strings"
)

// Errors maps field name to message.  Only invalid fields have an entry.
type Errors map[string]string

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Get returns the message for field, or "" when the field is valid.
func (e Errors) Get(field string) string { return e[field] }

// Fields returns the invalid field names in sorted order.
func (e Errors) Fields() []string {
	return slices.Sorted(maps.Keys(e))
}

// Clone returns an independent copy.  A nil map clones to an empty one.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	maps.Copy(out, e)
	return out
}

// Error lets a non-empty Errors travel as an error value.
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Result is the canonical validation outcome.
type Result struct {
	Valid  bool
	Errors Errors
}

// NewResult packages valid and errs.  A nil errs becomes an empty map so
// callers can index it without checking.
func NewResult(valid bool, errs Errors) Result {
	if errs == nil {
		errs = Errors{}
	}
	return Result{Valid: valid, Errors: errs}
}

// Rule pairs a deferred predicate with the message shown when it fails.
type Rule struct {
	Test    func() bool
	Message string
}

// FieldRules lists the rules for one field, in evaluation order.
type FieldRules struct {
	Field string
	Rules []Rule
}

// Field is shorthand for building a FieldRules literal.
func Field(name string, rs ...Rule) FieldRules {
	return FieldRules{Field: name, Rules: rs}
}

// Check evaluates every field and keeps the first failing rule per field.
// The returned Result always satisfies Valid == (len(Errors) == 0).
func Check(fields ...FieldRules) Result {
	errs := Errors{}
	for _, fr := range fields {
		for _, r := range fr.Rules {
			if !r.Test() {
				errs[fr.Field] = r.Message
				break
			}
		}
	}
	return NewResult(len(errs) == 0, errs)
}

// Rule constructors for the predicates in rules.go.

// Required fails when v is empty.
func Required(v any, msg string) Rule {
	return Rule{Test: func() bool { return IsNotEmpty(v) }, Message: msg}
}

// Email fails when s is not an email address.
func Email(s, msg string) Rule {
	return Rule{Test: func() bool { return IsValidEmail(s) }, Message: msg}
}

// Phone fails when s is not a phone number.
func Phone(s, msg string) Rule {
	return Rule{Test: func() bool { return IsValidPhone(s) }, Message: msg}
}

// StrongPassword fails when s is a weak password.
func StrongPassword(s, msg string) Rule {
	return Rule{Test: func() bool { return IsStrongPassword(s) }, Message: msg}
}

// Match fails when a and b differ.
func Match(a, b, msg string) Rule {
	return Rule{Test: func() bool { return PasswordsMatch(a, b) }, Message: msg}
}

// Must wraps an arbitrary predicate result.
func Must(ok bool, msg string) Rule {
	return Rule{Test: func() bool { return ok }, Message: msg}
}
