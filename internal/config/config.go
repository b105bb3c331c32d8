package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/bench"
	"github.com/gogpu/texbench/report"
)

const (
	// AppName names the config directory and the environment prefix.
	AppName = "texbench"
	// FileName is the config file name without extension.
	FileName = "texbench"
	// EnvPrefix prefixes every environment variable, e.g. TEXBENCH_ITERATIONS.
	EnvPrefix = "TEXBENCH"
)

// Config keys.
const (
	KeyIterations    = "iterations"
	KeyWarmup        = "warmup"
	KeyBackend       = "backend"
	KeyTimeout       = "timeout"
	KeyTimeoutPolicy = "timeout_policy"
	KeyFormat        = "format"
	KeyPretty        = "pretty"
	KeyLogLevel      = "log_level"
	KeyDumpDir       = "dump_dir"
	KeyResolutions   = "resolutions"
)

// ErrInvalid is returned when a loaded setting is out of range or unknown.
var ErrInvalid = errors.New("config: invalid setting")

// Config is the resolved texbench configuration.
type Config struct {
	Iterations    int           `mapstructure:"iterations"`
	Warmup        int           `mapstructure:"warmup"`
	Backend       string        `mapstructure:"backend"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TimeoutPolicy string        `mapstructure:"timeout_policy"`
	Format        string        `mapstructure:"format"`
	Pretty        bool          `mapstructure:"pretty"`
	LogLevel      string        `mapstructure:"log_level"`
	DumpDir       string        `mapstructure:"dump_dir"`
	// Resolutions overrides the default sweep when non-empty.
	Resolutions []string `mapstructure:"resolutions"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Iterations:    bench.DefaultIterations,
		Warmup:        bench.DefaultWarmupPasses,
		Timeout:       bench.DefaultFenceTimeout,
		TimeoutPolicy: bench.TimeoutWarn.String(),
		Format:        string(report.FormatText),
		LogLevel:      "warn",
	}
}

// Validate checks every setting and returns an ErrInvalid error for the first bad one.
func (c *Config) Validate() error {
	if _, err := bench.ParseTimeoutPolicy(c.TimeoutPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Bench().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	if _, err := c.ResolutionList(); err != nil {
		return err
	}
	return nil
}

// Bench returns the measurement parameters. An unknown timeout policy maps
// to an out-of-range value so that bench.Config.Validate rejects it.
func (c *Config) Bench() bench.Config {
	policy, err := bench.ParseTimeoutPolicy(c.TimeoutPolicy)
	if err != nil {
		policy = -1
	}
	return bench.Config{
		Iterations:    c.Iterations,
		WarmupPasses:  c.Warmup,
		FenceTimeout:  c.Timeout,
		TimeoutPolicy: policy,
	}
}

// ResolutionList parses Resolutions, falling back to the default sweep.
func (c *Config) ResolutionList() ([]texbench.Resolution, error) {
	if len(c.Resolutions) == 0 {
		return texbench.DefaultResolutions(), nil
	}
	res, err := texbench.ParseResolutions(c.Resolutions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return res, nil
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist.
	ConfigFile string
	// ConfigDir overrides the user config directory.
	ConfigDir string
	// Flags are bound to their keys; only flags set on the command line apply.
	Flags *pflag.FlagSet
}

// Load resolves the configuration. It returns the config file used, if any.
// The result is not validated.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault(KeyIterations, defaults.Iterations)
	v.SetDefault(KeyWarmup, defaults.Warmup)
	v.SetDefault(KeyBackend, defaults.Backend)
	v.SetDefault(KeyTimeout, defaults.Timeout)
	v.SetDefault(KeyTimeoutPolicy, defaults.TimeoutPolicy)
	v.SetDefault(KeyFormat, defaults.Format)
	v.SetDefault(KeyPretty, defaults.Pretty)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)
	v.SetDefault(KeyDumpDir, defaults.DumpDir)
	v.SetDefault(KeyResolutions, []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, "", err
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("%w: read %s: %w", ErrInvalid, opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if dir, err := configDir(opts.ConfigDir); err == nil {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("%w: %w", ErrInvalid, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return &cfg, v.ConfigFileUsed(), nil
}

// Dir returns $XDG_CONFIG_HOME/texbench, or the platform user config directory.
func Dir() (string, error) {
	return configDir("")
}

func configDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		var err error
		if base, err = os.UserConfigDir(); err != nil {
			return "", fmt.Errorf("config directory: %w", err)
		}
	}
	return filepath.Join(base, AppName), nil
}
