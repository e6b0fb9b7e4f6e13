// Package clock abstracts wall-clock time so the playback loop can be driven by a fake in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is a monotonic time source with a sleep primitive.
type Clock interface {
	// Now returns the monotonic time elapsed since the clock was created.
	Now() time.Duration
	Sleep(d time.Duration)
}

// System is the real clock.
type System struct {
	start time.Time
}

// NewSystem creates a system clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

func (s *System) Now() time.Duration {
	return time.Since(s.start)
}

func (s *System) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Manual is a clock that only moves when told to. Sleep advances it instantly.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Sleep(d time.Duration) {
	m.Advance(d)
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}

// Timer measures elapsed time between successive calls.
type Timer struct {
	clock Clock
	last  time.Duration
}

// NewTimer creates a timer whose first Relative call measures from now.
func NewTimer(c Clock) *Timer {
	return &Timer{clock: c, last: c.Now()}
}

// Relative returns the seconds elapsed since the previous call and restarts the measurement.
func (t *Timer) Relative() float64 {
	now := t.clock.Now()
	elapsed := now - t.last
	t.last = now
	return elapsed.Seconds()
}

// Reset discards any time elapsed since the previous call.
func (t *Timer) Reset() {
	t.last = t.clock.Now()
}

// Seconds returns the current clock reading in seconds.
func (t *Timer) Seconds() float64 {
	return t.clock.Now().Seconds()
}

// Clock exposes the underlying time source.
func (t *Timer) Clock() Clock {
	return t.clock
}
