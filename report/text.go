package report

import (
	"fmt"
	"io"
)

// textWriter writes the fixed-width console report, streaming one line
// per resolution.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) Begin(h Header) error {
	t.printf("Iterations per resolution: %d\n", h.Iterations)
	t.printf("ResolutionCount: %d\n\n", h.ResolutionCount)
	t.printf("%-12s %-12s %-12s %-10s %-10s %-10s\n",
		"Resolution", "FullAvg(ms)", "DirtyAvg(ms)", "Dirty%", "Speedup", "PixelsM/s")
	return t.err
}

func (t *textWriter) Row(r Row) error {
	t.printf("%4dx%-6d %-12.3f %-12.3f %-10.1f %-10.2f %-10.2f",
		r.Width, r.Height, r.FullAvgMs, r.SubAvgMs, r.DirtyPercent, r.Speedup, r.MegapixelsPerSec)
	switch {
	case r.Invalid:
		t.printf(" invalid (GPU sync timeout)")
	case r.TimedOut:
		t.printf(" timeout (lower bound)")
	}
	t.printf("\n")
	return t.err
}

func (t *textWriter) End(s Summary) error {
	t.printf("\nAggregate across %d resolutions:\n", s.Count)
	t.printf("  Sum Full time : %.3f ms\n", s.FullTotalMs)
	t.printf("  Sum Dirty time: %.3f ms\n", s.SubTotalMs)
	if s.FullTotalMs > 0 {
		t.printf("  Dirty total is %.1f%% of Full (overall speedup %.2fx)\n", s.OverallPercent, s.OverallSpeedup)
	}
	if s.Invalid > 0 {
		t.printf("  Excluded %d invalid resolutions (GPU sync timeout)\n", s.Invalid)
	}
	if s.BestSpeedup > 0 {
		t.printf("\nBest per-resolution speedup: %.2fx at %s\n", s.BestSpeedup, s.BestResolution)
	}
	t.printf("\nNote: Throughput column (PixelsM/s) is based on full uploads only and is megapixels per second.\n")
	return t.err
}
