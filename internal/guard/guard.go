// Package guard provides the mutual-exclusion flag that keeps a designated
// critical section from being entered while a previous entry is still in
// flight. It is what defeats callback-driven re-entry: code reached through
// an external call cannot slip back into the section it was called from.
package guard

import (
	"errors"
	"sync/atomic"
)

// ErrReentrant is raised by Enter when the guard is already held. Unlike the
// rest of the error taxonomy it signals an adversarial condition rather than
// ordinary misuse.
var ErrReentrant = errors.New("guard: reentrant call")

const (
	notEntered uint32 = iota
	entered
)

// Guard is a two-state flag: NOT_ENTERED and ENTERED, starting NOT_ENTERED.
// It is exclusive, not counting, and reusable for the lifetime of the
// instance. The transition is a single compare-and-swap, which makes it safe
// against re-entrant call stacks and against true parallel threads alike; a
// concurrent second entry is rejected rather than queued.
//
// The zero value is ready to use.
type Guard struct {
	state uint32
}

// New returns a guard in the NOT_ENTERED state.
func New() *Guard {
	return &Guard{}
}

// Enter transitions NOT_ENTERED -> ENTERED, failing fast with ErrReentrant
// if the guard is already held.
func (g *Guard) Enter() error {
	if !atomic.CompareAndSwapUint32(&g.state, notEntered, entered) {
		return ErrReentrant
	}
	return nil
}

// Exit transitions back to NOT_ENTERED unconditionally. Callers pair it with
// defer immediately after a successful Enter so release happens on every
// path out of the critical section, error paths included.
func (g *Guard) Exit() {
	atomic.StoreUint32(&g.state, notEntered)
}

// Entered reports whether a guarded call is currently in flight.
func (g *Guard) Entered() bool {
	return atomic.LoadUint32(&g.state) == entered
}
