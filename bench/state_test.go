package bench

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Created, "Created"},
		{Warmed, "Warmed"},
		{FullTimed, "FullTimed"},
		{SubTimed, "SubTimed"},
		{TornDown, "TornDown"},
		{State(42), "Unknown(42)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{Created, Warmed, true},
		{Warmed, FullTimed, true},
		{FullTimed, SubTimed, true},
		{SubTimed, TornDown, true},
		{Created, TornDown, true},
		{FullTimed, TornDown, true},
		{Created, FullTimed, false},
		{Warmed, SubTimed, false},
		{FullTimed, Warmed, false},
		{SubTimed, SubTimed, false},
		{TornDown, TornDown, false},
		{TornDown, Created, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s.CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
		err := checkTransition(tt.from, tt.to)
		if tt.want && err != nil {
			t.Errorf("checkTransition(%s, %s) = %v", tt.from, tt.to, err)
		}
		if !tt.want && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("checkTransition(%s, %s) = %v, want ErrInvalidTransition", tt.from, tt.to, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no warmup", func(c *Config) { c.WarmupPasses = 0 }, false},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }, true},
		{"negative warmup", func(c *Config) { c.WarmupPasses = -1 }, true},
		{"zero timeout", func(c *Config) { c.FenceTimeout = 0 }, true},
		{"bad policy", func(c *Config) { c.TimeoutPolicy = TimeoutPolicy(9) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Iterations != 100 || cfg.WarmupPasses != 1 || cfg.FenceTimeout != time.Second || cfg.TimeoutPolicy != TimeoutWarn {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestParseTimeoutPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeoutPolicy
		wantErr bool
	}{
		{"warn", TimeoutWarn, false},
		{"", TimeoutWarn, false},
		{"Invalidate", TimeoutInvalidate, false},
		{" invalidate ", TimeoutInvalidate, false},
		{"abort", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeoutPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeoutPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseTimeoutPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if err == nil && got.String() != strings.TrimSpace(strings.ToLower(tt.in)) && tt.in != "" {
			t.Errorf("%v.String() = %q, want round trip of %q", got, got.String(), tt.in)
		}
	}
}
