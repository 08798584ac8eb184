// Package clock abstracts wall-clock reads and one-shot timers so timing
// logic (debounce release, retry backoff) can run against a simulated clock
// in tests instead of real waits.
package clock

import "time"

// Timer is the cancellation handle for a scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing.
	Stop() bool
}

// Clock provides the current time and one-shot callback scheduling.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// New returns a Clock backed by the real wall clock.
func New() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
