// internal/form/input.go
//
// Coursedesk – Forms subsystem: input adapters.
//
// Context
//   UI layers hand the controller raw material in different shapes: an input
//   event carrying a target value, a bare value from a widget, or a posted
//   url.Values.  The adapters here extract the value and delegate to
//   UpdateField so the controller itself never depends on an event type.
//
//------------------------------------------------------------------------------

package form

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Valuer is implemented by UI events that carry an input value.
type Valuer interface {
	Value() any
}

// Target is the element an InputEvent came from.
type Target struct {
	Value any
}

// InputEvent mirrors a browser input event: the value sits on the target.
type InputEvent struct {
	Target Target
}

// Value implements Valuer.
func (e InputEvent) Value() any { return e.Target.Value }

// HandleInput extracts the value from input and calls UpdateField.  When
// input implements Valuer its Value is used; otherwise input is the value.
// A nil event pointer carries no value and sets the field to nil.
func (c *Controller) HandleInput(field string, input any) {
	if ev, ok := input.(Valuer); ok {
		if nilPointer(ev) {
			c.UpdateField(field, nil)
			return
		}
		c.UpdateField(field, ev.Value())
		return
	}
	c.UpdateField(field, input)
}

func nilPointer(x any) bool {
	rv := reflect.ValueOf(x)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// BindForm feeds every known field present in posted through HandleInput.
// Raw strings are coerced to the kind of the field's initial value.  Absent
// fields are left alone.
func (c *Controller) BindForm(posted url.Values) {
	for field, initial := range c.initial {
		raw, ok := posted[field]
		if !ok || len(raw) == 0 {
			continue
		}
		c.HandleInput(field, coerce(initial, raw[0]))
	}
}

// coerce parses raw into the kind of like.  Numbers that do not parse become
// zero; booleans also accept the HTML checkbox value "on".
func coerce(like any, raw string) any {
	s := strings.TrimSpace(raw)
	switch like.(type) {
	case bool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s == "on"
	case int:
		n, _ := strconv.Atoi(s)
		return n
	case int64:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case float64:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	default:
		return raw
	}
}
