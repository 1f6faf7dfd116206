// Package faultswitch implements the one-shot fault-injection toggles
// of spec.md §4.4. Adapted from lsmdb's pkg/clock's atomic.Uint64
// wrapper: a named type around a single atomic value, here
// atomic.Bool instead of a counter, with test-and-clear instead of
// next().
package faultswitch

import "sync/atomic"

// Switch is a one-shot boolean flag. Arm sets it; TestAndClear
// atomically observes and resets it in a single step, so a concurrent
// Arm racing a TestAndClear can only ever add work, never lose it
// (spec.md §5: "setters race benignly because the flag is one-shot
// and readers use a test-and-clear pattern").
type Switch struct {
	armed atomic.Bool
}

// Arm sets the switch. Safe to call from any goroutine at any time.
func (s *Switch) Arm() {
	s.armed.Store(true)
}

// TestAndClear reports whether the switch was armed, clearing it in
// the same atomic step.
func (s *Switch) TestAndClear() bool {
	return s.armed.CompareAndSwap(true, false)
}
