// internal/form/controller.go
//
// Coursedesk – Forms subsystem: lifecycle controller.
//
// Context
//   One Controller owns the state of one form usage: field values, per-field
//   errors, a single form-level submit error, and a submitting flag.  Screens
//   (or request handlers) create a Controller, feed it edits, and call Submit.
//   The controller never talks to the network itself; it runs the injected
//   validation function and, only when that passes, the injected submission
//   function.
//
// Workflow
//   •  UpdateField sets a value, drops that field's error, and clears any
//      submit error.  It does not re-validate.
//   •  Validate replaces the error map with the validator's verdict.
//   •  Submit clears errors, validates, and calls the submission function.
//      The submitting flag is always false again when Submit returns.
//   •  ResetForm restores an independent deep copy of the initial values.
//
// Contract
//   •  Submit is not re-entrant.  A call made while another is in flight
//      returns false at once and changes no state.
//   •  Submit never panics and never returns an error.  Callers tell "invalid
//      input" from "submission failed" by reading Errors and SubmitError.
//   •  Subscribers on the exposed cells run synchronously while the
//      controller is mid-operation.  They may read any cell but must not call
//      back into UpdateField, Submit, or the other mutators.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/copystructure"
	"go.uber.org/zap"

	"github.com/yanizio/coursedesk/internal/audit"
	"github.com/yanizio/coursedesk/internal/metrics"
	"github.com/yanizio/coursedesk/internal/rules"
)

// DefaultSubmitError is shown when a failed submission carries no message.
const DefaultSubmitError = "An error occurred during submission"

// ErrSubmitPanic marks a submission function that panicked.
var ErrSubmitPanic = errors.New("form: submission function panicked")

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Values is the field value map.  Keys are fixed when the controller is
// built; values are usually string, int, float64, or bool.
type Values map[string]any

// Clone returns a deep, independent copy of v.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	cp, err := copystructure.Copy(v)
	if err != nil {
		// copystructure only fails on exotic types; fall back to one level.
		out := make(Values, len(v))
		maps.Copy(out, v)
		return out
	}
	return cp.(Values)
}

// Text returns the value of field as text.  Missing or nil values give "".
func (v Values) Text(field string) string {
	switch t := v[field].(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// ValidateFunc inspects values and reports field errors.  It must be pure.
type ValidateFunc func(Values) rules.Result

// SubmitFunc delivers values somewhere.  A non-nil error is a failed
// submission and its text becomes the submit error.
type SubmitFunc func(ctx context.Context, v Values) error

// Status is the derived lifecycle state.
type Status int

const (
	StatusClean Status = iota
	StatusInvalid
	StatusSubmitting
	StatusFailed
)

var statusNames = [...]string{"clean", "invalid", "submitting", "failed"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText renders the status name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("form: unknown status %q", b)
}

// Snapshot is a point-in-time copy of the whole controller state.
type Snapshot struct {
	Form        string       `json:"form"`
	Values      Values       `json:"values"`
	Errors      rules.Errors `json:"errors"`
	Submitting  bool         `json:"submitting"`
	SubmitError string       `json:"submit_error"`
	Valid       bool         `json:"valid"`
	Status      Status       `json:"status"`
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger.  The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRecorder sends every Submit outcome to r.
func WithRecorder(r audit.Recorder) Option {
	return func(c *Controller) { c.rec = r }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// -----------------------------------------------------------------------------
// Controller
// -----------------------------------------------------------------------------

// Controller is the form lifecycle state machine.  It is safe for concurrent
// use, but one instance must never be shared by unrelated forms.
type Controller struct {
	id       string
	initial  Values // pristine snapshot, never handed out
	validate ValidateFunc
	submit   SubmitFunc
	log      *zap.SugaredLogger
	rec      audit.Recorder
	now      func() time.Time

	mu   sync.Mutex
	cur  Values
	errs rules.Errors
	busy bool

	values      *Cell[Values]
	errors      *Cell[rules.Errors]
	submitting  *Cell[bool]
	submitError *Cell[string]
	valid       *Cell[bool]
}

// New builds a controller for form id.  A nil validate accepts everything; a
// nil submit succeeds without doing anything.
func New(id string, initial Values, validate ValidateFunc, submit SubmitFunc, opts ...Option) *Controller {
	if validate == nil {
		validate = func(Values) rules.Result { return rules.NewResult(true, nil) }
	}
	if submit == nil {
		submit = func(context.Context, Values) error { return nil }
	}

	c := &Controller{
		id:       id,
		initial:  initial.Clone(),
		validate: validate,
		submit:   submit,
		log:      zap.NewNop().Sugar(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	c.cur = c.initial.Clone()
	c.errs = rules.Errors{}
	c.values = NewCell(c.cur.Clone(), Values.Clone)
	c.errors = NewCell(rules.Errors{}, rules.Errors.Clone)
	c.submitting = NewCell(false, nil)
	c.submitError = NewCell("", nil)
	c.valid = NewCell(false, nil)
	return c
}

// ID returns the form identifier.
func (c *Controller) ID() string { return c.id }

// Values exposes the field values.
func (c *Controller) Values() Observable[Values] { return c.values }

// Errors exposes the per-field error map.
func (c *Controller) Errors() Observable[rules.Errors] { return c.errors }

// Submitting exposes the in-flight flag.
func (c *Controller) Submitting() Observable[bool] { return c.submitting }

// SubmitError exposes the form-level failure message ("" when none).
func (c *Controller) SubmitError() Observable[string] { return c.submitError }

// Valid exposes the result of the last Validate.
func (c *Controller) Valid() Observable[bool] { return c.valid }

// Status derives the lifecycle state from the stored flags.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	switch {
	case c.busy:
		return StatusSubmitting
	case c.submitError.Get() != "":
		return StatusFailed
	case len(c.errs) > 0:
		return StatusInvalid
	default:
		return StatusClean
	}
}

// Snapshot copies the full state in one consistent read.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Form:        c.id,
		Values:      c.cur.Clone(),
		Errors:      c.errs.Clone(),
		Submitting:  c.busy,
		SubmitError: c.submitError.Get(),
		Valid:       c.valid.Get(),
		Status:      c.statusLocked(),
	}
}

// UpdateField sets field to value.  An existing error on that field is
// dropped and any submit error is cleared.  Unknown fields are ignored.
func (c *Controller) UpdateField(field string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.initial[field]; !ok {
		c.log.Debugw("form update ignored, unknown field", "form", c.id, "field", field)
		return
	}

	next := make(Values, len(c.cur))
	maps.Copy(next, c.cur)
	next[field] = value
	c.cur = next
	c.values.Set(next.Clone())

	if c.errs.Has(field) {
		errs := c.errs.Clone()
		delete(errs, field)
		c.setErrorsLocked(errs)
	}
	if c.submitError.Get() != "" {
		c.submitError.Set("")
	}
}

// Validate runs the validator against the current values, replaces the error
// map, and reports whether the form is valid.
func (c *Controller) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller) validateLocked() bool {
	res := c.validate(c.cur.Clone())

	errs := make(rules.Errors, len(res.Errors))
	for f, msg := range res.Errors {
		if _, ok := c.initial[f]; !ok {
			c.log.Warnw("form validator reported unknown field", "form", c.id, "field", f)
			continue
		}
		errs[f] = msg
	}

	ok := res.Valid && len(res.Errors) == 0
	c.setErrorsLocked(errs)
	c.valid.Set(ok)
	return ok
}

func (c *Controller) setErrorsLocked(errs rules.Errors) {
	c.errs = errs
	c.errors.Set(errs.Clone())
}

// Submit validates and, when the form is valid, runs the submission
// function.  It returns true only when the submission function succeeded.
func (c *Controller) Submit(ctx context.Context) bool {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		c.log.Warnw("form submit rejected, already submitting", "form", c.id)
		c.record(ctx, audit.OutcomeBusy, "")
		return false
	}

	c.setErrorsLocked(rules.Errors{})
	c.submitError.Set("")

	if !c.validateLocked() {
		fields := c.errs.Fields()
		if len(fields) == 0 {
			// Invalid with nothing to show against a field: surface it form-wide.
			c.submitError.Set(DefaultSubmitError)
			c.mu.Unlock()
			c.log.Errorw("form invalid without field errors", "form", c.id)
			c.record(ctx, audit.OutcomeInvalid, DefaultSubmitError)
			return false
		}
		c.mu.Unlock()
		c.log.Debugw("form invalid", "form", c.id, "fields", fields)
		c.record(ctx, audit.OutcomeInvalid, "")
		return false
	}

	c.busy = true
	c.submitting.Set(true)
	payload := c.cur.Clone()
	c.mu.Unlock()

	start := c.now()
	err := c.run(ctx, payload)
	metrics.FormSubmitDuration.WithLabelValues(c.id).Observe(c.now().Sub(start).Seconds())

	if err != nil {
		msg := messageOf(err)
		c.log.Infow("form submission failed", "form", c.id, "error", err)
		c.record(ctx, audit.OutcomeFailed, msg)
		return false
	}

	c.log.Debugw("form submitted", "form", c.id)
	c.record(ctx, audit.OutcomeSucceeded, "")
	return true
}

// run calls the submission function and settles the state on every path,
// including a panic inside the submission function.
func (c *Controller) run(ctx context.Context, payload Values) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("form submission panicked", "form", c.id, "panic", r)
			err = fmt.Errorf("%w: %v", ErrSubmitPanic, r)
		}

		c.mu.Lock()
		if err != nil {
			c.submitError.Set(messageOf(err))
		}
		c.busy = false
		c.submitting.Set(false)
		c.mu.Unlock()
	}()

	return c.submit(ctx, payload)
}

// ResetForm restores the initial values and clears every error.
func (c *Controller) ResetForm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cur = c.initial.Clone()
	c.values.Set(c.cur.Clone())
	c.setErrorsLocked(rules.Errors{})
	c.submitError.Set("")
	c.valid.Set(false)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// messageOf turns a submission error into the banner text.
func messageOf(err error) string {
	if errors.Is(err, ErrSubmitPanic) {
		return DefaultSubmitError
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return DefaultSubmitError
}

func (c *Controller) record(ctx context.Context, o audit.Outcome, msg string) {
	metrics.FormSubmitTotal.WithLabelValues(c.id, string(o)).Inc()
	if c.rec == nil {
		return
	}
	err := c.rec.Record(ctx, audit.Attempt{
		FormID:      c.id,
		Outcome:     o,
		Message:     msg,
		AttemptedAt: c.now(),
	})
	if err != nil {
		c.log.Errorw("form audit failed", "form", c.id, "outcome", o, "error", err)
	}
}
