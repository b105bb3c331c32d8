package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gogpu/texbench/report"
)

// Flag names that differ from their key.
const (
	FlagTimeoutPolicy = "timeout-policy"
	FlagLogLevel      = "log-level"
	FlagDumpDir       = "dump-dir"
	FlagResolution    = "resolution"
)

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	KeyIterations:     KeyIterations,
	KeyWarmup:         KeyWarmup,
	KeyBackend:        KeyBackend,
	KeyTimeout:        KeyTimeout,
	FlagTimeoutPolicy: KeyTimeoutPolicy,
	KeyFormat:         KeyFormat,
	KeyPretty:         KeyPretty,
	FlagLogLevel:      KeyLogLevel,
	FlagDumpDir:       KeyDumpDir,
	FlagResolution:    KeyResolutions,
}

// AddFlags defines every setting as a flag on fs.
func AddFlags(fs *pflag.FlagSet) {
	AddDeviceFlags(fs)
	AddBenchFlags(fs)
}

// AddDeviceFlags defines the flags shared by every command: backend and log level.
func AddDeviceFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP(KeyBackend, "b", d.Backend, "upload backend (default: best available)")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
}

// AddBenchFlags defines the measurement and report flags with the built-in defaults.
func AddBenchFlags(fs *pflag.FlagSet) {
	d := Default()
	formats := make([]string, 0, len(report.Formats()))
	for _, f := range report.Formats() {
		formats = append(formats, string(f))
	}

	fs.IntP(KeyIterations, "n", d.Iterations, "uploads per resolution and mode")
	fs.Int(KeyWarmup, d.Warmup, "synchronized full uploads before timing")
	fs.Duration(KeyTimeout, d.Timeout, "fence wait timeout")
	fs.String(FlagTimeoutPolicy, d.TimeoutPolicy, "on fence timeout: warn or invalidate")
	fs.StringP(KeyFormat, "f", d.Format, "report format: "+strings.Join(formats, ", "))
	fs.Bool(KeyPretty, d.Pretty, "render markdown for the terminal")
	fs.String(FlagDumpDir, d.DumpDir, "write each generated frame as BMP to this directory")
	fs.StringSliceP(FlagResolution, "r", nil, "resolution to measure, WIDTHxHEIGHT (repeatable)")
}

type flagBinder interface {
	BindPFlag(key string, flag *pflag.Flag) error
}

func bindFlags(v flagBinder, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}
