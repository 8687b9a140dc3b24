// Package clock turns wall-clock readings into whole-second engine ticks.
//
// Tick sources wake up more often than once a second and can be late (slow
// frames, scheduler jitter, a suspended laptop). The Accumulator carries the
// sub-second remainder between readings so that the number of ticks produced
// over any interval equals the whole seconds that actually passed.
package clock

import "time"

// Accumulator converts wall-clock deltas into whole seconds.
// Not goroutine-safe.
type Accumulator struct {
	last  time.Time
	carry time.Duration
	// MaxCatchUp bounds how many seconds a single reading may produce.
	// Zero means unbounded.
	MaxCatchUp int
}

// Rebase starts measuring from now and drops any carried remainder. Call it
// when a session starts or resumes so paused time is never counted.
func (a *Accumulator) Rebase(now time.Time) {
	a.last = now
	a.carry = 0
}

// Advance returns the number of whole seconds elapsed since the previous
// reading, keeping the fractional remainder for the next call.
func (a *Accumulator) Advance(now time.Time) int {
	if a.last.IsZero() {
		a.Rebase(now)
		return 0
	}
	delta := now.Sub(a.last)
	a.last = now
	if delta <= 0 {
		return 0
	}

	a.carry += delta
	seconds := int(a.carry / time.Second)
	a.carry -= time.Duration(seconds) * time.Second

	if a.MaxCatchUp > 0 && seconds > a.MaxCatchUp {
		seconds = a.MaxCatchUp
	}
	return seconds
}
