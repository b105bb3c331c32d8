package texbench

import (
	"log/slog"
	"sync/atomic"
)

// silent discards every record; Enabled reports false so attributes are never built.
var silent = slog.New(slog.DiscardHandler)

var current atomic.Pointer[slog.Logger]

// SetLogger installs the logger used by texbench and its sub-packages.
// Nothing is logged until SetLogger is called; passing nil turns logging
// off again. It may be called while other goroutines are logging.
//
// Levels:
//   - [slog.LevelDebug]: state transitions, dirty rect plans, fence waits
//   - [slog.LevelInfo]: device selected, sweep start and end
//   - [slog.LevelWarn]: fence timeouts, invalidated results
//
// Example:
//
//	texbench.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the installed logger, or a silent one.
// Sub-packages call it on every use so that SetLogger takes effect immediately.
func Logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return silent
}
