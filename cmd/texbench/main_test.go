package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
	"github.com/gogpu/texbench/backend/simulated"
	"github.com/gogpu/texbench/internal/config"
)

const (
	testBackend     = "virtual"
	testTinyBackend = "virtual-tiny"
)

func init() {
	backend.Register(testBackend, func() (backend.Device, error) {
		return simulated.New(simulated.WithClock(texbench.NewVirtualClock(time.Time{}))), nil
	})
	backend.Register(testTinyBackend, func() (backend.Device, error) {
		return simulated.New(
			simulated.WithClock(texbench.NewVirtualClock(time.Time{})),
			simulated.WithMaxTextureSize(512),
		), nil
	})
}

// run executes the root command without fang and returns its output and exit code.
func run(t *testing.T, args ...string) (stdout, stderr string, code int, err error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { texbench.SetLogger(nil) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), exitCode(err), err
}

func TestDefaultSweep(t *testing.T) {
	stdout, _, code, err := run(t, "2", "--backend", testBackend)
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
	if !strings.Contains(stdout, "Iterations per resolution: 2\n") {
		t.Errorf("missing iterations line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "ResolutionCount: 24\n") {
		t.Errorf("missing ResolutionCount: 24:\n%s", stdout)
	}
	for _, res := range texbench.DefaultResolutions() {
		if !strings.Contains(stdout, res.String()) {
			t.Errorf("report has no row for %s", res)
		}
	}
	if !strings.Contains(stdout, "Aggregate across 24 resolutions:") {
		t.Errorf("missing aggregate block:\n%s", stdout)
	}
	if !strings.Contains(stdout, "upload model") {
		t.Errorf("missing device header:\n%s", stdout)
	}
}

func TestExplicitResolutions(t *testing.T) {
	stdout, _, code, err := run(t, "5", "640x480", "128x128", "--backend", testBackend)
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
	for _, want := range []string{"Iterations per resolution: 5", "ResolutionCount: 2", " 640x480", " 128x128"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestJSONReport(t *testing.T) {
	stdout, _, code, err := run(t, "3", "256x256", "--backend", testBackend, "--format", "json", "--warmup", "0")
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}

	var doc struct {
		Iterations int    `json:"iterations"`
		Backend    string `json:"backend"`
		Results    []struct {
			Width     int     `json:"width"`
			FullAvgMs float64 `json:"full_avg_ms"`
			SubAvgMs  float64 `json:"sub_avg_ms"`
			Speedup   float64 `json:"speedup"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if doc.Iterations != 3 || doc.Backend != backend.BackendSimulated || len(doc.Results) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	r := doc.Results[0]
	if r.Width != 256 || r.FullAvgMs <= 0 || r.SubAvgMs <= 0 || r.Speedup <= 1 {
		t.Errorf("result = %+v, want dirty uploads faster than full", r)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.toml")
	content := "iterations = 4\nresolutions = [\"320x240\"]\nformat = \"markdown\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, _, code, err := run(t, "--config", path, "--backend", testBackend)
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
	for _, want := range []string{"Iterations per resolution: **4**", "| 320x240 | 76,800 |"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestDumpDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	_, _, code, err := run(t, "1", "64x32", "--backend", testBackend, "--dump-dir", dir)
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "frame_64x32.bmp")); err != nil {
		t.Errorf("frame not dumped: %v", err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    int
		wantMsg string
		wantErr error
	}{
		{
			name:    "unrecognized argument",
			args:    []string{"abc", "--backend", testBackend},
			code:    exitUsage,
			wantMsg: `unrecognized argument "abc" (expected iterations or WxH)`,
		},
		{
			name:    "iterations only in first position",
			args:    []string{"100", "200", "--backend", testBackend},
			code:    exitUsage,
			wantMsg: `unrecognized argument "200"`,
		},
		{
			name:    "zero dimension",
			args:    []string{"0x480", "--backend", testBackend},
			code:    exitUsage,
			wantMsg: `unrecognized argument "0x480"`,
		},
		{
			name:    "zero iterations",
			args:    []string{"0", "--backend", testBackend},
			code:    exitUsage,
			wantErr: config.ErrInvalid,
		},
		{
			name:    "bad timeout policy",
			args:    []string{"--timeout-policy", "retry", "--backend", testBackend},
			code:    exitUsage,
			wantErr: config.ErrInvalid,
		},
		{
			name: "unknown flag",
			args: []string{"--no-such-flag"},
			code: exitUsage,
		},
		{
			name:    "unknown backend",
			args:    []string{"64x64", "--backend", "nope"},
			code:    exitFailure,
			wantErr: backend.ErrBackendNotAvailable,
		},
		{
			name:    "texture too large",
			args:    []string{"1", "1024x1024", "--backend", testTinyBackend},
			code:    exitFailure,
			wantErr: backend.ErrCapability,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, code, err := run(t, tt.args...)
			if code != tt.code {
				t.Fatalf("exit code = %d, want %d (err = %v)", code, tt.code, err)
			}
			if tt.wantMsg != "" && (err == nil || !strings.Contains(err.Error(), tt.wantMsg)) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantMsg)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if strings.Contains(stdout, "Aggregate") {
				t.Errorf("failed run printed a summary:\n%s", stdout)
			}
		})
	}
}

func TestCanceled(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { texbench.SetLogger(nil) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	cmd := newRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"1", "64x64", "--backend", testBackend})
	err := cmd.ExecuteContext(ctx)
	if code := exitCode(err); code != exitFailure {
		t.Errorf("exit code = %d, want %d (err = %v)", code, exitFailure, err)
	}
}

func TestBackendsCommand(t *testing.T) {
	stdout, _, code, err := run(t, "backends")
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
	for _, name := range []string{backend.BackendSimulated, testBackend} {
		if !strings.Contains(stdout, name) {
			t.Errorf("backends output missing %q:\n%s", name, stdout)
		}
	}
}

func TestInfoCommand(t *testing.T) {
	stdout, _, code, err := run(t, "info", "--backend", testBackend)
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
	for _, want := range []string{"Vendor:", "texbench", "Max texture size:", "16384"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("info output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Texture units:") {
		t.Errorf("info printed an unknown field:\n%s", stdout)
	}
}

func TestVerboseLogging(t *testing.T) {
	_, stderr, code, err := run(t, "-v", "1", "64x64", "--backend", testBackend)
	if code != exitOK {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
	if !strings.Contains(stderr, "sweep start") {
		t.Errorf("debug log missing sweep start:\n%s", stderr)
	}
}
