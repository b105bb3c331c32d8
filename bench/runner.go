package bench

import (
	"context"
	"fmt"
	"image"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
	"github.com/gogpu/texbench/dirty"
	"github.com/gogpu/texbench/pixbuf"
)

// Observer is called after every state transition.
type Observer func(res texbench.Resolution, s State)

// FrameSink receives each generated frame before it is measured.
// A non-nil error aborts the sweep.
type FrameSink func(res texbench.Resolution, buf *pixbuf.Buffer) error

// Runner measures texture uploads on one device.
//
// A Runner is not safe for concurrent use.
type Runner struct {
	dev      backend.Device
	cfg      Config
	timer    *Timer
	observer Observer
	sink     FrameSink
	clock    texbench.Clock
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver installs a state observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithFrameSink installs a frame sink used by Sweep.
func WithFrameSink(s FrameSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithClock sets the time source used for measurements.
func WithClock(c texbench.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// NewRunner validates cfg and creates a Runner for dev.
func NewRunner(dev backend.Device, cfg Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		dev:   dev,
		cfg:   cfg,
		clock: texbench.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.timer = NewTimer(dev, WithTimerClock(r.clock), WithFenceTimeout(cfg.FenceTimeout))
	return r, nil
}

// Config returns the runner's parameters.
func (r *Runner) Config() Config { return r.cfg }

// run tracks the state of one resolution.
type run struct {
	r     *Runner
	res   texbench.Resolution
	state State
}

func (s *run) advance(to State) error {
	if err := checkTransition(s.state, to); err != nil {
		return err
	}
	s.state = to
	slogger().Debug("bench: state", "resolution", s.res, "state", to)
	if s.r.observer != nil {
		s.r.observer(s.res, to)
	}
	return nil
}

// fail wraps err as a MeasurementError for the state being entered.
func (s *run) fail(phase State, err error) error {
	return &MeasurementError{Resolution: s.res, State: phase, Err: err}
}

// Run measures one resolution with the given frame and dirty rects.
// The texture is destroyed before Run returns, whatever the outcome.
func (r *Runner) Run(res texbench.Resolution, buf *pixbuf.Buffer, rects []dirty.Rect) (Result, error) {
	s := &run{r: r, res: res, state: Created}
	pixels := buf.Bytes()
	regions := make([]image.Rectangle, len(rects))
	for i, rc := range rects {
		regions[i] = rc.Bounds()
	}

	tex, err := r.dev.CreateTexture(backend.TextureDescriptor{
		Label:  "texbench_" + res.String(),
		Width:  res.Width,
		Height: res.Height,
		Format: backend.FormatBGRA8,
		Filter: backend.FilterLinear,
		Wrap:   backend.WrapClampToEdge,
	})
	if err != nil {
		return Result{}, s.fail(Created, fmt.Errorf("create texture: %w", err))
	}
	if r.observer != nil {
		r.observer(res, Created)
	}
	defer func() {
		r.dev.DestroyTexture(tex)
		if err := s.advance(TornDown); err != nil {
			slogger().Error("bench: teardown", "resolution", res, "error", err)
		}
	}()

	// Warm-up timeouts only warn; TimedOut covers the timed phases.
	var warnings []string
	timedOut := false
	note := func(phase string, m Measurement) bool {
		if m.TimedOut {
			warnings = append(warnings, fmt.Sprintf(
				"%s: GPU sync timeout after %v, elapsed time is a lower bound", phase, r.timer.Timeout()))
		}
		return m.TimedOut
	}

	// Warm-up.
	for range r.cfg.WarmupPasses {
		m, err := r.timer.Measure(func() {
			r.dev.UploadFull(tex, pixels)
		})
		if err != nil {
			return Result{}, s.fail(Warmed, err)
		}
		note("warm-up", m)
	}
	if err := r.dev.QueryError(); err != nil {
		return Result{}, s.fail(Warmed, err)
	}
	if err := s.advance(Warmed); err != nil {
		return Result{}, err
	}

	// Full replacement.
	full, err := r.timer.Measure(func() {
		for range r.cfg.Iterations {
			r.dev.UploadFull(tex, pixels)
		}
	})
	if err == nil {
		err = r.dev.QueryError()
	}
	if err != nil {
		return Result{}, s.fail(FullTimed, err)
	}
	timedOut = note("full", full) || timedOut
	if err := s.advance(FullTimed); err != nil {
		return Result{}, err
	}

	// Dirty sub-updates.
	sub, err := r.timer.Measure(func() {
		for range r.cfg.Iterations {
			for _, region := range regions {
				r.dev.UploadRegion(tex, region, pixels)
			}
		}
	})
	if err == nil {
		err = r.dev.QueryError()
	}
	if err != nil {
		return Result{}, s.fail(SubTimed, err)
	}
	timedOut = note("dirty", sub) || timedOut
	if err := s.advance(SubTimed); err != nil {
		return Result{}, err
	}

	result := newResult(res, r.cfg.Iterations, full.Elapsed, sub.Elapsed)
	result.Warnings = warnings
	result.TimedOut = timedOut
	if timedOut && r.cfg.TimeoutPolicy == TimeoutInvalidate {
		result.Invalid = true
		slogger().Warn("bench: result invalidated by fence timeout", "resolution", res)
	}
	return result, nil
}

// Sweep runs every resolution in order and passes each Result to emit.
// It checks the device against the largest resolution first, and checks
// ctx between resolutions only; a measurement in progress is never
// interrupted. The first error from the device, the frame sink or emit
// stops the sweep.
func (r *Runner) Sweep(ctx context.Context, resolutions []texbench.Resolution, emit func(Result) error) error {
	req := backend.Requirements{MinTextureSize: texbench.MaxDimension(resolutions)}
	if err := backend.CheckRequirements(r.dev.Info(), req); err != nil {
		return err
	}

	slogger().Info("bench: sweep start",
		"backend", r.dev.Name(),
		"resolutions", len(resolutions),
		"iterations", r.cfg.Iterations)

	for _, res := range resolutions {
		if err := ctx.Err(); err != nil {
			return err
		}

		buf := pixbuf.Generate(res.Width, res.Height)
		rects := dirty.Plan(res.Width, res.Height)
		slogger().Debug("bench: dirty plan",
			"resolution", res,
			"rects", rects,
			"coverage", dirty.Coverage(rects, res.Width, res.Height))

		if r.sink != nil {
			if err := r.sink(res, buf); err != nil {
				return fmt.Errorf("frame sink %s: %w", res, err)
			}
		}

		result, err := r.Run(res, buf, rects)
		if err != nil {
			return err
		}
		if err := emit(result); err != nil {
			return err
		}
	}

	slogger().Info("bench: sweep done", "resolutions", len(resolutions))
	return nil
}
