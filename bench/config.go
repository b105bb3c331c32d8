package bench

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("bench: invalid config")

// Defaults.
const (
	DefaultIterations   = 100
	DefaultWarmupPasses = 1
	DefaultFenceTimeout = time.Second
)

// TimeoutPolicy decides what a fence timeout does to a result.
type TimeoutPolicy int

const (
	// TimeoutWarn keeps the result, flags it TimedOut and records a warning.
	// The elapsed time is a lower bound.
	TimeoutWarn TimeoutPolicy = iota

	// TimeoutInvalidate marks the result Invalid so it is excluded from
	// aggregates.
	TimeoutInvalidate
)

// String returns the policy name as accepted by ParseTimeoutPolicy.
func (p TimeoutPolicy) String() string {
	switch p {
	case TimeoutWarn:
		return "warn"
	case TimeoutInvalidate:
		return "invalidate"
	default:
		return fmt.Sprintf("TimeoutPolicy(%d)", int(p))
	}
}

// ParseTimeoutPolicy parses "warn" or "invalidate".
func ParseTimeoutPolicy(s string) (TimeoutPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "":
		return TimeoutWarn, nil
	case "invalidate":
		return TimeoutInvalidate, nil
	default:
		return 0, fmt.Errorf("%w: unknown timeout policy %q", ErrInvalidConfig, s)
	}
}

// Config holds the measurement parameters. They are fixed for a whole run.
type Config struct {
	// Iterations is the number of full uploads, and of dirty passes, per resolution.
	Iterations int
	// WarmupPasses is the number of synchronized full uploads before timing.
	WarmupPasses int
	// FenceTimeout bounds every fence wait.
	FenceTimeout time.Duration
	// TimeoutPolicy applies when a fence wait times out.
	TimeoutPolicy TimeoutPolicy
}

// DefaultConfig returns 100 iterations, one warm-up pass, a 1s fence
// timeout and the warn policy.
func DefaultConfig() Config {
	return Config{
		Iterations:    DefaultIterations,
		WarmupPasses:  DefaultWarmupPasses,
		FenceTimeout:  DefaultFenceTimeout,
		TimeoutPolicy: TimeoutWarn,
	}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case c.WarmupPasses < 0:
		return fmt.Errorf("%w: warmup passes must not be negative, got %d", ErrInvalidConfig, c.WarmupPasses)
	case c.FenceTimeout <= 0:
		return fmt.Errorf("%w: fence timeout must be positive, got %v", ErrInvalidConfig, c.FenceTimeout)
	case c.TimeoutPolicy != TimeoutWarn && c.TimeoutPolicy != TimeoutInvalidate:
		return fmt.Errorf("%w: unknown timeout policy %v", ErrInvalidConfig, c.TimeoutPolicy)
	}
	return nil
}
