package bench

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
)

func slogger() *slog.Logger { return texbench.Logger() }

// Measurement is the outcome of one Timer.Measure call.
type Measurement struct {
	// Elapsed runs from before the batch until the fence wait returned.
	Elapsed time.Duration
	// TimedOut means the fence did not signal; Elapsed is a lower bound.
	TimedOut bool
}

// Milliseconds returns Elapsed in fractional milliseconds.
func (m Measurement) Milliseconds() float64 { return milliseconds(m.Elapsed) }

// Timer measures batches of GPU work up to their completion.
type Timer struct {
	dev     backend.Device
	clock   texbench.Clock
	timeout time.Duration
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithTimerClock sets the time source. Default is texbench.RealClock.
func WithTimerClock(c texbench.Clock) TimerOption {
	return func(t *Timer) { t.clock = c }
}

// WithFenceTimeout sets the fence wait bound. Default is one second.
func WithFenceTimeout(d time.Duration) TimerOption {
	return func(t *Timer) { t.timeout = d }
}

// NewTimer creates a Timer for dev.
func NewTimer(dev backend.Device, opts ...TimerOption) *Timer {
	t := &Timer{
		dev:     dev,
		clock:   texbench.RealClock{},
		timeout: DefaultFenceTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Timeout returns the fence wait bound.
func (t *Timer) Timeout() time.Duration { return t.timeout }

// Measure runs batch, inserts a fence behind the submitted work and waits
// for it. The end timestamp is taken after the wait returns.
//
// A timeout is logged and reported in the Measurement, not as an error.
// Errors from inserting or waiting on the fence are returned.
func (t *Timer) Measure(batch func()) (Measurement, error) {
	start := t.clock.Now()
	batch()

	fence, err := t.dev.InsertFence()
	if err != nil {
		return Measurement{}, fmt.Errorf("insert fence: %w", err)
	}
	signaled, err := t.dev.WaitFence(fence, t.timeout)
	if err != nil {
		return Measurement{}, fmt.Errorf("wait fence: %w", err)
	}

	m := Measurement{Elapsed: t.clock.Since(start), TimedOut: !signaled}
	if m.TimedOut {
		slogger().Warn("GPU sync timeout", "timeout", t.timeout, "elapsed", m.Elapsed)
	} else {
		slogger().Debug("fence signaled", "elapsed", m.Elapsed)
	}
	return m, nil
}
