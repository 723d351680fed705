// internal/form/definition.go
//
// Coursedesk – Forms subsystem: YAML definition loader.
//
// Context
//   Each form the client serves is declared in a YAML file: its identifier,
//   its fields with initial values, and the ordered checks each field must
//   pass.  Components embed their forms/*.yaml files and load them into a
//   Registry at construction time.  A FormDef turns into the two things a
//   Controller needs: an initial Values snapshot and a ValidateFunc.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef → RuleDef.
//   •  LoadFormDef parses a single file and validates structural rules.
//   •  Registry.LoadDir walks a directory of an fs.FS and registers every
//      “*.yaml” it finds.  Later registrations override earlier ones.
//   •  FormDef.Validator evaluates every field and keeps the first failing
//      check per field, so one pass reports all invalid fields.
//   •  Fields marked “secret: true” are blanked by FormDef.Redact before a
//      snapshot leaves the process.
//
// Example
//
//	id: auth/login
//	fields:
//	  - name: email
//	    initial: ""
//	    rules:
//	      - check: required
//	        message: Email is required
//	      - check: email
//	        message: Please enter a valid email address
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/coursedesk/internal/rules"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// ID should be namespaced by component, e.g. “auth/login”.
type FormDef struct {
	ID     string     `yaml:"id"`     // Component-scoped identifier.
	Title  string     `yaml:"title"`  // Display title, optional.
	Fields []FieldDef `yaml:"fields"` // Ordered field list.
}

// FieldDef describes a single input and the checks it must pass.
type FieldDef struct {
	Name    string    `yaml:"name"`    // Submission key.  Required.
	Label   string    `yaml:"label"`   // Human-readable label, optional.
	Initial any       `yaml:"initial"` // Initial value; omitted means "".
	Secret  bool      `yaml:"secret"`  // Never echoed back to the client.
	Rules   []RuleDef `yaml:"rules"`   // Evaluated in order, first failure wins.
}

// RuleDef configures one check.
type RuleDef struct {
	Check   string  `yaml:"check"`   // required, email, phone, strong_password, match, min_number.
	Message string  `yaml:"message"` // User-facing message, optional.
	Field   string  `yaml:"field"`   // Other field, for match.
	Min     float64 `yaml:"min"`     // Lower bound, for min_number.
}

// Known check names.
const (
	CheckRequired       = "required"
	CheckEmail          = "email"
	CheckPhone          = "phone"
	CheckStrongPassword = "strong_password"
	CheckMatch          = "match"
	CheckMinNumber      = "min_number"
)

var knownChecks = map[string]bool{
	CheckRequired:       true,
	CheckEmail:          true,
	CheckPhone:          true,
	CheckStrongPassword: true,
	CheckMatch:          true,
	CheckMinNumber:      true,
}

// -----------------------------------------------------------------------------
// Conversion
// -----------------------------------------------------------------------------

// Initial returns a fresh Values snapshot of the declared initial values.
func (fd *FormDef) Initial() Values {
	v := make(Values, len(fd.Fields))
	for _, f := range fd.Fields {
		if f.Initial == nil {
			v[f.Name] = ""
			continue
		}
		v[f.Name] = f.Initial
	}
	return v
}

// Redact blanks every secret field in snap.Values so the snapshot is safe
// to send back to a client.  snap is modified in place and returned.
func (fd *FormDef) Redact(snap Snapshot) Snapshot {
	for _, f := range fd.Fields {
		if !f.Secret {
			continue
		}
		if _, ok := snap.Values[f.Name]; ok {
			snap.Values[f.Name] = ""
		}
	}
	return snap
}

// Validator compiles the field rules into a ValidateFunc.
func (fd *FormDef) Validator() ValidateFunc {
	fields := fd.Fields
	return func(v Values) rules.Result {
		frs := make([]rules.FieldRules, 0, len(fields))
		for _, f := range fields {
			rs := make([]rules.Rule, 0, len(f.Rules))
			for _, rd := range f.Rules {
				rs = append(rs, compileRule(f.Name, rd, v))
			}
			frs = append(frs, rules.Field(f.Name, rs...))
		}
		return rules.Check(frs...)
	}
}

// NewController builds a Controller wired to this definition.
func (fd *FormDef) NewController(submit SubmitFunc, opts ...Option) *Controller {
	return New(fd.ID, fd.Initial(), fd.Validator(), submit, opts...)
}

func compileRule(field string, rd RuleDef, v Values) rules.Rule {
	msg := rd.Message
	if msg == "" {
		msg = defaultMessage(rd)
	}

	switch rd.Check {
	case CheckRequired:
		return rules.Required(v[field], msg)
	case CheckEmail:
		return rules.Email(v.Text(field), msg)
	case CheckPhone:
		return rules.Phone(v.Text(field), msg)
	case CheckStrongPassword:
		return rules.StrongPassword(v.Text(field), msg)
	case CheckMatch:
		return rules.Match(v.Text(rd.Field), v.Text(field), msg)
	case CheckMinNumber:
		return rules.Rule{
			Test: func() bool {
				n, ok := number(v[field])
				return ok && n >= rd.Min
			},
			Message: msg,
		}
	default:
		// Unreachable for registered forms; validateFormDef rejects unknown checks.
		return rules.Must(false, msg)
	}
}

// number converts the scalar kinds a form can hold into float64.
func number(x any) (float64, bool) {
	switch t := x.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// user-friendly default messages
func defaultMessage(rd RuleDef) string {
	switch rd.Check {
	case CheckRequired:
		return "This field is required."
	case CheckEmail:
		return "Please enter a valid email address."
	case CheckPhone:
		return "Please enter a valid phone number."
	case CheckStrongPassword:
		return "Password must be at least 8 characters and contain a letter and a number."
	case CheckMatch:
		return "Values do not match."
	case CheckMinNumber:
		return fmt.Sprintf("Must be at least %g.", rd.Min)
	default:
		return "Invalid input."
	}
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry maps form ID → *FormDef.  The zero value is not usable; call
// NewRegistry.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*FormDef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*FormDef)}
}

// Get returns a parsed FormDef by ID.  The boolean is false when the ID is
// unknown.
func (r *Registry) Get(id string) (*FormDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fd, ok := r.defs[id]
	return fd, ok
}

// IDs returns the registered form IDs in arbitrary order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for id := range r.defs {
		out = append(out, id)
	}
	return out
}

// Register validates fd and inserts or overrides it.
func (r *Registry) Register(fd *FormDef) error {
	if err := validateFormDef(fd, fd.ID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[fd.ID] = fd
	return nil
}

// LoadDir registers every “*.yaml” under dir in fsys.
func (r *Registry) LoadDir(fsys fs.FS, dir string) error {
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path.Ext(d.Name()) != ".yaml" {
			return nil // skip non-YAML
		}
		fd, err := LoadFormDef(fsys, p)
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		return r.Register(fd)
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadFormDef parses one YAML file, validates its structure, and returns a
// populated FormDef.  It never touches a Registry.
func LoadFormDef(fsys fs.FS, p string) (*FormDef, error) {
	raw, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", p, err)
	}

	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", p, err)
	}

	if err := validateFormDef(&fd, p); err != nil {
		return nil, err
	}
	return &fd, nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces structural rules that YAML tags cannot express.
// src names the file (or ID) in error messages.
func validateFormDef(fd *FormDef, src string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", src)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", src)
	}

	names := make(map[string]struct{}, len(fd.Fields))
	for _, f := range fd.Fields {
		if f.Name == "" {
			return fmt.Errorf("form %s: field missing 'name'", src)
		}
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", src, f.Name)
		}
		names[f.Name] = struct{}{}
	}

	for _, f := range fd.Fields {
		for _, rd := range f.Rules {
			if !knownChecks[rd.Check] {
				return fmt.Errorf("form %s: field '%s' unknown check '%s'", src, f.Name, rd.Check)
			}
			if rd.Check != CheckMatch {
				continue
			}
			if rd.Field == "" {
				return fmt.Errorf("form %s: field '%s' match check needs 'field'", src, f.Name)
			}
			if _, ok := names[rd.Field]; !ok {
				return fmt.Errorf("form %s: field '%s' matches unknown field '%s'", src, f.Name, rd.Field)
			}
		}
	}
	return nil
}
