// internal/form/cell.go
//
// Coursedesk – Forms subsystem: observable value cells.
//
// Context
//   The controller exposes its state through cells so a rendering layer (a
//   live view, a websocket pusher, a test) can read the latest value after
//   every operation and optionally subscribe to changes.  Nothing here knows
//   about HTML or transports.
//
// Workflow
//   •  Set stores a value and then calls every subscriber, in subscription
//      order, with the new value.  Subscribers run outside the cell lock.
//   •  Map-valued cells are created with a copy function so readers never
//      alias the controller's internal maps.
//
//------------------------------------------------------------------------------

package form

import (
	"slices"
	"sync"
)

// Observable is the read side of a Cell.
type Observable[T any] interface {
	Get() T
	Subscribe(fn func(T)) (cancel func())
}

// Cell holds one value and notifies subscribers after each Set.
type Cell[T any] struct {
	mu     sync.RWMutex
	val    T
	copyFn func(T) T
	subs   map[int]func(T)
	nextID int
}

// Ensure compile-time compliance with Observable.
var _ Observable[int] = (*Cell[int])(nil)

// NewCell returns a cell holding v.  copyFn, when non-nil, is applied on
// every Get and before handing the value to subscribers.
func NewCell[T any](v T, copyFn func(T) T) *Cell[T] {
	return &Cell[T]{val: v, copyFn: copyFn, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.out(c.val)
}

// Set stores v and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.val = v
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(c.out(v))
	}
}

// Subscribe registers fn.  The returned cancel func is idempotent.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Cell[T]) out(v T) T {
	if c.copyFn == nil {
		return v
	}
	return c.copyFn(v)
}
