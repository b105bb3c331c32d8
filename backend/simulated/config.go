package simulated

import (
	"time"

	"github.com/gogpu/texbench"
)

// Default model parameters.
const (
	// DefaultBandwidth is the modeled host-to-GPU transfer rate in bytes per second.
	DefaultBandwidth = 8e9

	// DefaultSubmitCost is the CPU time spent per upload call.
	DefaultSubmitCost = 2 * time.Microsecond

	// DefaultFenceLatency is the time between the timeline draining and the fence signaling.
	DefaultFenceLatency = 10 * time.Microsecond

	// DefaultMaxTextureSize is the reported maximum texture dimension.
	DefaultMaxTextureSize = 16384
)

// Config holds the model parameters.
type Config struct {
	// Bandwidth is the transfer rate in bytes per second. Must be positive.
	Bandwidth float64
	// SubmitCost is charged to the caller's clock on every upload.
	SubmitCost time.Duration
	// FenceLatency is added to the timeline by every fence.
	FenceLatency time.Duration
	// Stall is extra GPU time added by every fence.
	Stall time.Duration
	// FailAfter records ErrInjected on upload number FailAfter+1.
	// Zero disables injection.
	FailAfter int
	// MaxTextureSize is reported in DeviceInfo and enforced by CreateTexture.
	MaxTextureSize int
	// Retain keeps a copy of every texture's contents, readable with Contents.
	Retain bool
	// Clock is the time source. Defaults to texbench.RealClock.
	Clock texbench.Clock
}

// DefaultConfig returns the parameters used by the registered backend.
func DefaultConfig() Config {
	return Config{
		Bandwidth:      DefaultBandwidth,
		SubmitCost:     DefaultSubmitCost,
		FenceLatency:   DefaultFenceLatency,
		MaxTextureSize: DefaultMaxTextureSize,
		Clock:          texbench.RealClock{},
	}
}

// Option configures a Device.
type Option func(*Config)

// WithBandwidth sets the transfer rate in bytes per second.
func WithBandwidth(bytesPerSecond float64) Option {
	return func(c *Config) { c.Bandwidth = bytesPerSecond }
}

// WithSubmitCost sets the CPU cost of each upload call.
func WithSubmitCost(d time.Duration) Option {
	return func(c *Config) { c.SubmitCost = d }
}

// WithFenceLatency sets the fence signal latency.
func WithFenceLatency(d time.Duration) Option {
	return func(c *Config) { c.FenceLatency = d }
}

// WithStall adds d of GPU time to every fence.
func WithStall(d time.Duration) Option {
	return func(c *Config) { c.Stall = d }
}

// WithFailAfter makes the upload after the first n record ErrInjected.
func WithFailAfter(n int) Option {
	return func(c *Config) { c.FailAfter = n }
}

// WithMaxTextureSize sets the reported maximum texture dimension.
func WithMaxTextureSize(n int) Option {
	return func(c *Config) { c.MaxTextureSize = n }
}

// WithRetainedContents keeps texture contents in memory.
func WithRetainedContents() Option {
	return func(c *Config) { c.Retain = true }
}

// WithClock sets the time source.
func WithClock(clock texbench.Clock) Option {
	return func(c *Config) { c.Clock = clock }
}
