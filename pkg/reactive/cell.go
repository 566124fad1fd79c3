// Package reactive provides the two small primitives the bandwidth engine is
// built on: a single-value observable state holder and a trailing-edge
// debouncer. Both are framework-free; consumers wire them together by hand.
package reactive

import "sync"

// Cell is a single-value state holder with change notification. It follows
// single-writer, multi-reader semantics: any goroutine may Get, one logical
// owner Sets. Subscribers run synchronously on the writer's goroutine, in
// registration order, after the new value is stored.
//
// Subscriptions are for the life of the cell; cells are constructed once at
// session start and handed to consumers by reference, never held in globals.
type Cell[T any] struct {
	mu   sync.RWMutex
	val  T
	subs []func(T)
}

// NewCell creates a cell holding the given initial value. Subscribers are
// not notified of the initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{val: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

// Set stores a new value and notifies subscribers. The notification runs
// outside the lock so subscribers may call Get (or Set on other cells)
// without deadlocking.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.val = v
	subs := c.subs
	c.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers fn to be called with every value stored after this
// call. There is no unsubscribe; cell lifetimes match the session.
func (c *Cell[T]) Subscribe(fn func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}
