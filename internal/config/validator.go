// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals and defaults the merged Koanf tree.  Any validation error aborts
// startup, so the binary never runs with a malformed API URL, a short
// session secret, or an unknown log level.
//
// Errors are flattened into one line per field, keyed by the koanf path
// (`session.secret`), so operators see which key to fix.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("koanf")
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

//
// public API
//

// validateStruct returns a combined validation error, or nil on success.
func validateStruct(c *Config) error {
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is “Config.session.secret”; drop the root type name.
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		lines = append(lines, fmt.Sprintf("%s failed %q", key, fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(lines, "; "))
}
