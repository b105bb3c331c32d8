package bench

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
	"github.com/gogpu/texbench/backend/simulated"
	"github.com/gogpu/texbench/dirty"
	"github.com/gogpu/texbench/pixbuf"
)

func newRunner(t *testing.T, dev backend.Device, clock texbench.Clock, cfg Config, opts ...Option) *Runner {
	t.Helper()
	r, err := NewRunner(dev, cfg, append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func runOne(t *testing.T, r *Runner, res texbench.Resolution) (Result, error) {
	t.Helper()
	return r.Run(res, pixbuf.Generate(res.Width, res.Height), dirty.Plan(res.Width, res.Height))
}

func TestNewRunnerInvalidConfig(t *testing.T) {
	dev, _ := newSimulated(t)
	cfg := DefaultConfig()
	cfg.Iterations = 0
	if _, err := NewRunner(dev, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewRunner() error = %v, want ErrInvalidConfig", err)
	}
}

func TestRunAveragingIdentity(t *testing.T) {
	// Keep dirty uploads transfer bound at 128x128.
	dev, clock := newSimulated(t, simulated.WithBandwidth(4e9), simulated.WithSubmitCost(time.Microsecond))
	cfg := DefaultConfig()
	cfg.Iterations = 7
	r := newRunner(t, dev, clock, cfg)

	for _, res := range []texbench.Resolution{{Width: 128, Height: 128}, {Width: 640, Height: 480}, {Width: 1920, Height: 1080}} {
		got, err := runOne(t, r, res)
		if err != nil {
			t.Fatalf("Run(%s) error = %v", res, err)
		}
		if got.Width != res.Width || got.Height != res.Height || got.Iterations != 7 {
			t.Errorf("Run(%s) = %dx%d x%d", res, got.Width, got.Height, got.Iterations)
		}
		if math.Abs(got.FullAvgMs*7-got.FullTotalMs) > 1e-9 {
			t.Errorf("%s: FullAvgMs*7 = %v, FullTotalMs = %v", res, got.FullAvgMs*7, got.FullTotalMs)
		}
		if math.Abs(got.SubAvgMs*7-got.SubTotalMs) > 1e-9 {
			t.Errorf("%s: SubAvgMs*7 = %v, SubTotalMs = %v", res, got.SubAvgMs*7, got.SubTotalMs)
		}
		if got.SubAvgMs >= got.FullAvgMs {
			t.Errorf("%s: dirty %vms not below full %vms", res, got.SubAvgMs, got.FullAvgMs)
		}
		if got.TimedOut || got.Invalid || len(got.Warnings) != 0 {
			t.Errorf("%s: unexpected flags %+v", res, got)
		}
	}
}

func TestRunExactTiming(t *testing.T) {
	// 32x32 texture: full upload 4096 bytes, each dirty rect 8x8x4 = 256 bytes.
	dev, clock := newSimulated(t, simulated.WithBandwidth(1.024e6)) // 1024 bytes per ms
	cfg := DefaultConfig()
	cfg.Iterations = 2
	r := newRunner(t, dev, clock, cfg)

	got, err := runOne(t, r, texbench.Resolution{Width: 32, Height: 32})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// Full: 10µs submit, then 2 x 4ms queued transfers.
	if want := 8.01; math.Abs(got.FullTotalMs-want) > 1e-9 {
		t.Errorf("FullTotalMs = %v, want %v", got.FullTotalMs, want)
	}
	// Dirty: 10µs submit, then 6 x 0.25ms queued transfers.
	if want := 1.51; math.Abs(got.SubTotalMs-want) > 1e-9 {
		t.Errorf("SubTotalMs = %v, want %v", got.SubTotalMs, want)
	}
}

func TestRunStateOrder(t *testing.T) {
	dev, clock := newSimulated(t)
	cfg := DefaultConfig()
	cfg.Iterations = 2

	var states []State
	r := newRunner(t, dev, clock, cfg, WithObserver(func(_ texbench.Resolution, s State) {
		states = append(states, s)
	}))

	if _, err := runOne(t, r, texbench.Resolution{Width: 64, Height: 64}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []State{Created, Warmed, FullTimed, SubTimed, TornDown}
	if !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d after Run, want 0", dev.LiveTextures())
	}
}

func TestRunTimeoutPolicies(t *testing.T) {
	tests := []struct {
		name        string
		policy      TimeoutPolicy
		wantInvalid bool
	}{
		{"warn keeps result", TimeoutWarn, false},
		{"invalidate marks result", TimeoutInvalidate, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, clock := newSimulated(t, simulated.WithStall(2*time.Second))
			cfg := DefaultConfig()
			cfg.Iterations = 3
			cfg.TimeoutPolicy = tt.policy
			r := newRunner(t, dev, clock, cfg)

			got, err := runOne(t, r, texbench.Resolution{Width: 128, Height: 128})
			if err != nil {
				t.Fatalf("Run() error = %v, want timeout to be non-fatal", err)
			}
			if !got.TimedOut {
				t.Error("TimedOut = false, want true")
			}
			if got.Invalid != tt.wantInvalid {
				t.Errorf("Invalid = %v, want %v", got.Invalid, tt.wantInvalid)
			}
			// warm-up, full and dirty each time out.
			if len(got.Warnings) != 3 {
				t.Fatalf("Warnings = %q, want 3", got.Warnings)
			}
			if !strings.Contains(got.Warnings[1], "GPU sync timeout") {
				t.Errorf("Warnings[1] = %q", got.Warnings[1])
			}
			// The lower bound is the fence timeout.
			if got.FullTotalMs < 1000 {
				t.Errorf("FullTotalMs = %v, want >= 1000", got.FullTotalMs)
			}
			if dev.LiveTextures() != 0 {
				t.Errorf("LiveTextures() = %d, want 0", dev.LiveTextures())
			}
		})
	}
}

// warmupStall reports the first fence as timed out.
type warmupStall struct {
	*simulated.Device
	waits int
}

func (w *warmupStall) WaitFence(id backend.FenceID, timeout time.Duration) (bool, error) {
	w.waits++
	ok, err := w.Device.WaitFence(id, timeout)
	if w.waits == 1 {
		return false, err
	}
	return ok, err
}

func TestRunWarmupTimeoutOnlyWarns(t *testing.T) {
	for _, policy := range []TimeoutPolicy{TimeoutWarn, TimeoutInvalidate} {
		t.Run(policy.String(), func(t *testing.T) {
			sim, clock := newSimulated(t)
			dev := &warmupStall{Device: sim}
			cfg := DefaultConfig()
			cfg.WarmupPasses = 1
			cfg.Iterations = 3
			cfg.TimeoutPolicy = policy
			r := newRunner(t, dev, clock, cfg)

			got, err := runOne(t, r, texbench.Resolution{Width: 64, Height: 64})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got.TimedOut || got.Invalid {
				t.Errorf("TimedOut = %v, Invalid = %v, want both false", got.TimedOut, got.Invalid)
			}
			if len(got.Warnings) != 1 || !strings.HasPrefix(got.Warnings[0], "warm-up:") {
				t.Errorf("Warnings = %q, want one warm-up warning", got.Warnings)
			}
		})
	}
}

func TestRunFatalUploadError(t *testing.T) {
	tests := []struct {
		name      string
		failAfter int
		wantState State
		wantSeen  []State
	}{
		// No injection: the warm-up upload gets a short buffer instead.
		{"warm-up", 0, Warmed, []State{Created, TornDown}},
		{"full loop", 3, FullTimed, []State{Created, Warmed, TornDown}},
		// One warm-up and four full uploads pass, then two dirty uploads.
		{"dirty loop", 7, SubTimed, []State{Created, Warmed, FullTimed, TornDown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []simulated.Option
			if tt.failAfter > 0 {
				opts = append(opts, simulated.WithFailAfter(tt.failAfter))
			}
			dev, clock := newSimulated(t, opts...)
			cfg := DefaultConfig()
			cfg.Iterations = 4

			var seen []State
			r := newRunner(t, dev, clock, cfg, WithObserver(func(_ texbench.Resolution, s State) {
				seen = append(seen, s)
			}))

			res := texbench.Resolution{Width: 64, Height: 64}
			buf := pixbuf.Generate(res.Width, res.Height)
			if tt.failAfter == 0 {
				buf = pixbuf.Generate(res.Width, res.Height/2)
			}
			_, err := r.Run(res, buf, dirty.Plan(res.Width, res.Height))

			var merr *MeasurementError
			if !errors.As(err, &merr) {
				t.Fatalf("Run() error = %v, want *MeasurementError", err)
			}
			if merr.State != tt.wantState {
				t.Errorf("State = %s, want %s", merr.State, tt.wantState)
			}
			if merr.Resolution != res {
				t.Errorf("Resolution = %s, want %s", merr.Resolution, res)
			}
			if tt.failAfter > 0 && !errors.Is(err, simulated.ErrInjected) {
				t.Errorf("error = %v, want ErrInjected", err)
			}
			if tt.failAfter == 0 && !errors.Is(err, backend.ErrShortBuffer) {
				t.Errorf("error = %v, want ErrShortBuffer", err)
			}
			if !slices.Equal(seen, tt.wantSeen) {
				t.Errorf("states = %v, want %v", seen, tt.wantSeen)
			}
			if dev.LiveTextures() != 0 {
				t.Errorf("LiveTextures() = %d after failure, want 0", dev.LiveTextures())
			}
		})
	}
}

func TestRunCreateTextureError(t *testing.T) {
	dev, clock := newSimulated(t, simulated.WithMaxTextureSize(256))
	r := newRunner(t, dev, clock, DefaultConfig())

	_, err := runOne(t, r, texbench.Resolution{Width: 512, Height: 512})
	var merr *MeasurementError
	if !errors.As(err, &merr) || merr.State != Created {
		t.Fatalf("Run() error = %v, want MeasurementError in Created", err)
	}
	if !errors.Is(err, backend.ErrCapability) {
		t.Errorf("error = %v, want ErrCapability", err)
	}
}

func TestSweep(t *testing.T) {
	dev, clock := newSimulated(t, simulated.WithBandwidth(8e9))
	cfg := DefaultConfig()
	cfg.Iterations = 3

	var frames []texbench.Resolution
	r := newRunner(t, dev, clock, cfg, WithFrameSink(func(res texbench.Resolution, buf *pixbuf.Buffer) error {
		if buf.Width() != res.Width || buf.Height() != res.Height {
			t.Errorf("frame %dx%d for %s", buf.Width(), buf.Height(), res)
		}
		frames = append(frames, res)
		return nil
	}))

	resolutions := texbench.DefaultResolutions()
	var got []texbench.Resolution
	err := r.Sweep(context.Background(), resolutions, func(res Result) error {
		got = append(got, res.Resolution())
		if dev.LiveTextures() != 0 {
			t.Errorf("texture still live after %s", res.Resolution())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if !slices.Equal(got, resolutions) {
		t.Errorf("results in order %v, want %v", got, resolutions)
	}
	if !slices.Equal(frames, resolutions) {
		t.Errorf("frames = %v, want %v", frames, resolutions)
	}
}

func TestSweepStops(t *testing.T) {
	resolutions := []texbench.Resolution{{Width: 128, Height: 128}, {Width: 256, Height: 256}, {Width: 512, Height: 512}}

	t.Run("canceled context", func(t *testing.T) {
		dev, clock := newSimulated(t)
		r := newRunner(t, dev, clock, DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := r.Sweep(ctx, resolutions, func(Result) error { calls++; return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Sweep() error = %v, want context.Canceled", err)
		}
		if calls != 0 {
			t.Errorf("emit called %d times", calls)
		}
	})

	t.Run("cancel between resolutions", func(t *testing.T) {
		dev, clock := newSimulated(t)
		r := newRunner(t, dev, clock, DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := 0
		err := r.Sweep(ctx, resolutions, func(Result) error {
			calls++
			cancel()
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Sweep() error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("emit called %d times, want 1", calls)
		}
	})

	t.Run("emit error", func(t *testing.T) {
		dev, clock := newSimulated(t)
		r := newRunner(t, dev, clock, DefaultConfig())
		stop := errors.New("stop")
		err := r.Sweep(context.Background(), resolutions, func(Result) error { return stop })
		if !errors.Is(err, stop) {
			t.Errorf("Sweep() error = %v, want %v", err, stop)
		}
	})

	t.Run("capability", func(t *testing.T) {
		dev, clock := newSimulated(t, simulated.WithMaxTextureSize(256))
		r := newRunner(t, dev, clock, DefaultConfig())
		calls := 0
		err := r.Sweep(context.Background(), resolutions, func(Result) error { calls++; return nil })
		if !errors.Is(err, backend.ErrCapability) {
			t.Errorf("Sweep() error = %v, want ErrCapability", err)
		}
		if calls != 0 {
			t.Errorf("emit called %d times before capability check", calls)
		}
	})
}
