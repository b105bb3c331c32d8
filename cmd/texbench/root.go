package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
	_ "github.com/gogpu/texbench/backend/native"    // registers vulkan and noop
	_ "github.com/gogpu/texbench/backend/simulated" // registers simulated
	_ "github.com/gogpu/texbench/backend/webgpu"    // registers webgpu
	"github.com/gogpu/texbench/bench"
	"github.com/gogpu/texbench/internal/config"
	"github.com/gogpu/texbench/pixbuf"
	"github.com/gogpu/texbench/report"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
	verbose bool
}

// execute runs the CLI with fang and returns the process exit code.
func execute(ctx context.Context, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	err := fang.Execute(ctx, root,
		fang.WithVersion(texbench.Version),
		fang.WithNotifySignal(os.Interrupt),
	)
	return exitCode(err)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "texbench [iterations] [WIDTHxHEIGHT ...]",
		Short: "Compare full texture uploads with dirty-rect sub-updates",
		Long: `texbench uploads a generated frame to a GPU texture, first as whole
replacements and then as three dirty rectangles per pass, and reports the
average time of each per resolution.

The first argument, if all digits, is the number of uploads per resolution
(default 100). Every other argument is a resolution such as 1920x1080.
Without resolutions a built-in sweep of 24 sizes is measured.`,
		Example: `  texbench
  texbench 500 1920x1080 3840x2160
  texbench --backend simulated --format markdown --pretty`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runBench,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./texbench.toml or $XDG_CONFIG_HOME/texbench/texbench.toml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	config.AddDeviceFlags(pf)
	config.AddBenchFlags(root.Flags())

	root.AddCommand(newBackendsCmd(a), newInfoCmd(a))
	return root
}

// load resolves and validates the configuration and installs the logger.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, used, err := config.Load(config.LoadOptions{
		ConfigFile: a.cfgFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, usageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError(err)
	}
	if err := setupLogging(a.stderr, cfg.LogLevel, a.verbose); err != nil {
		return nil, usageError(err)
	}
	if used != "" {
		texbench.Logger().Debug("config loaded", "file", used)
	}
	return cfg, nil
}

// openDevice opens the named backend, or the best available one.
func openDevice(name string) (backend.Device, error) {
	var (
		dev backend.Device
		err error
	)
	if name == "" {
		dev, err = backend.OpenDefault()
	} else {
		dev, err = backend.Open(name)
	}
	if err != nil {
		return nil, failure(fmt.Errorf("open device: %w", err))
	}
	texbench.Logger().Info("device selected", "device", dev.Info().String())
	return dev, nil
}

// clocked is implemented by devices that run on their own time source.
type clocked interface {
	Clock() texbench.Clock
}

func (a *app) runBench(cmd *cobra.Command, args []string) error {
	parsed, err := parseArgs(args)
	if err != nil {
		return usageError(err)
	}
	cfg, err := a.load(cmd)
	if err != nil {
		return err
	}
	if parsed.hasIterations {
		cfg.Iterations = parsed.iterations
	}
	if len(parsed.resolutions) > 0 {
		cfg.Resolutions = parsed.resolutions
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}
	resolutions, err := cfg.ResolutionList()
	if err != nil {
		return usageError(err)
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return usageError(err)
	}

	dev, err := openDevice(cfg.Backend)
	if err != nil {
		return err
	}
	defer dev.Close()

	var opts []bench.Option
	if c, ok := dev.(clocked); ok {
		opts = append(opts, bench.WithClock(c.Clock()))
	}
	if cfg.DumpDir != "" {
		dir := cfg.DumpDir
		opts = append(opts, bench.WithFrameSink(func(res texbench.Resolution, buf *pixbuf.Buffer) error {
			path, err := buf.SaveBMP(dir)
			if err == nil {
				texbench.Logger().Debug("frame saved", "resolution", res, "path", path)
			}
			return err
		}))
	}
	runner, err := bench.NewRunner(dev, cfg.Bench(), opts...)
	if err != nil {
		return usageError(err)
	}

	w, err := report.NewWriter(format, a.stdout, report.WithPretty(cfg.Pretty), report.WithWordWrap(terminalWidth()))
	if err != nil {
		return usageError(err)
	}
	info := dev.Info()
	if format == report.FormatText {
		if err := writeDeviceHeader(a.stdout, info); err != nil {
			return failure(err)
		}
	}
	err = w.Begin(report.Header{
		Iterations:      cfg.Iterations,
		ResolutionCount: len(resolutions),
		TimeoutPolicy:   cfg.TimeoutPolicy,
		Device:          info,
	})
	if err != nil {
		return failure(err)
	}

	var agg report.Aggregator
	err = runner.Sweep(cmd.Context(), resolutions, func(r bench.Result) error {
		return w.Row(agg.Add(r))
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return failure(errors.New("interrupted"))
		}
		return failure(err)
	}
	if err := w.End(agg.Summary()); err != nil {
		return failure(err)
	}
	return nil
}

func newBackendsCmd(a *app) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List the registered upload backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.load(cmd); err != nil {
				return err
			}
			s := newStyles(a.stdout)
			for _, name := range backend.Available() {
				line := name
				if probe {
					if dev, err := backend.Open(name); err != nil {
						line += "  " + s.bad.Render(err.Error())
					} else {
						line += "  " + s.ok.Render(dev.Info().String())
						dev.Close()
					}
				}
				if _, err := fmt.Fprintln(a.stdout, line); err != nil {
					return failure(err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "open each backend and report whether it works")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the device the benchmark would run on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			dev, err := openDevice(cfg.Backend)
			if err != nil {
				return err
			}
			defer dev.Close()
			if err := writeDeviceHeader(a.stdout, dev.Info()); err != nil {
				return failure(err)
			}
			return nil
		},
	}
}
