package bench

import (
	"fmt"
	"time"

	"github.com/gogpu/texbench"
)

// Result is the measurement of one resolution.
type Result struct {
	Width       int     `json:"width" toml:"width"`
	Height      int     `json:"height" toml:"height"`
	Iterations  int     `json:"iterations" toml:"iterations"`
	FullTotalMs float64 `json:"full_total_ms" toml:"full_total_ms"`
	FullAvgMs   float64 `json:"full_avg_ms" toml:"full_avg_ms"`
	SubTotalMs  float64 `json:"sub_total_ms" toml:"sub_total_ms"`
	SubAvgMs    float64 `json:"sub_avg_ms" toml:"sub_avg_ms"`

	// Warnings lists non-fatal conditions met while measuring.
	Warnings []string `json:"warnings,omitempty" toml:"warnings,omitempty"`
	// TimedOut is set when any fence wait timed out.
	TimedOut bool `json:"timed_out,omitempty" toml:"timed_out,omitempty"`
	// Invalid is set when a timeout occurred under TimeoutInvalidate.
	Invalid bool `json:"invalid,omitempty" toml:"invalid,omitempty"`
}

// Resolution returns the result's texture size.
func (r Result) Resolution() texbench.Resolution {
	return texbench.Resolution{Width: r.Width, Height: r.Height}
}

// newResult builds a Result from the two loop measurements.
func newResult(res texbench.Resolution, iterations int, full, sub time.Duration) Result {
	fullMs := milliseconds(full)
	subMs := milliseconds(sub)
	return Result{
		Width:       res.Width,
		Height:      res.Height,
		Iterations:  iterations,
		FullTotalMs: fullMs,
		FullAvgMs:   fullMs / float64(iterations),
		SubTotalMs:  subMs,
		SubAvgMs:    subMs / float64(iterations),
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// MeasurementError reports a fatal device error during a measurement state.
type MeasurementError struct {
	Resolution texbench.Resolution
	// State is the state the runner was working towards when Err occurred.
	State State
	Err   error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("bench: %s %s: %v", e.Resolution, e.State, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }
