// internal/rules/struct.go
//
// Thin adapter from go-playground/validator struct tags to Errors.
//
// Context
// -------
// Some payloads are easier to describe as a tagged struct than as a chain of
// Check calls (config sections, API request bodies).  FromStruct runs the
// shared validator instance and flattens validator.ValidationErrors into the
// same field → message map the form controller understands.
//
// Message lookup order for a failing field `email` with tag `required`:
//
//   1. messages["email.required"]
//   2. messages["required"]
//   3. "<field> is invalid"
//
// Field names come from the `form` struct tag when present, otherwise from
// the Go field name.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package rules

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		default:
			return name
		}
	})
	// Reuse the ruleset predicates so tags and Check agree.
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = val.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	return val
}

//
// public API
//

// FromStruct validates s and returns one message per failing field.  The map
// is empty when s is valid.  A non-struct argument yields a single "" entry
// carrying the validator's complaint.
func FromStruct(s any, messages map[string]string) Errors {
	errs := Errors{}
	err := v.Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[""] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		field := fe.Field()
		if errs.Has(field) {
			continue // first failure per field wins
		}
		errs[field] = lookupMessage(messages, field, fe.Tag())
	}
	return errs
}

// Struct is FromStruct packaged as a Result.
func Struct(s any, messages map[string]string) Result {
	errs := FromStruct(s, messages)
	return NewResult(len(errs) == 0, errs)
}

func lookupMessage(messages map[string]string, field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	if m, ok := messages[tag]; ok {
		return m
	}
	return field + " is invalid"
}
