package texbench

import (
	"sync"
	"time"
)

type (
	// Clock abstracts the time source used for measurement so that timing
	// can be made deterministic. Production code uses RealClock; tests and
	// the simulated backend share a VirtualClock.
	Clock interface {
		// Now returns the current time.
		Now() time.Time

		// Since returns the time elapsed since t.
		Since(t time.Time) time.Duration

		// Sleep blocks for d. A VirtualClock advances instead of blocking.
		Sleep(d time.Duration)
	}

	// RealClock implements Clock using the system's monotonic clock.
	RealClock struct{}

	// VirtualClock implements Clock with time that only moves when
	// Advance, Set or Sleep is called.
	VirtualClock struct {
		mu      sync.Mutex
		current time.Time
	}
)

// Now returns the current system time.
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Sleep pauses the calling goroutine for d.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewVirtualClock creates a VirtualClock starting at initial.
// A zero initial time is replaced by a fixed reference time.
func NewVirtualClock(initial time.Time) *VirtualClock {
	if initial.IsZero() {
		initial = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &VirtualClock{current: initial}
}

// Now returns the virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Since returns the virtual time elapsed since t.
func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Sub(t)
}

// Sleep advances the clock by d. Non-positive durations are ignored.
func (c *VirtualClock) Sleep(d time.Duration) {
	if d > 0 {
		c.Advance(d)
	}
}

// Advance moves the virtual time forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the virtual time to t.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
