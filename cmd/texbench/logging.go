package main

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/gogpu/texbench"
)

// setupLogging routes texbench logs through a charmbracelet/log handler on w.
// verbose forces debug level.
func setupLogging(w io.Writer, level string, verbose bool) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	if verbose {
		lvl = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "texbench",
		ReportTimestamp: verbose,
	})
	texbench.SetLogger(slog.New(handler))
	return nil
}
