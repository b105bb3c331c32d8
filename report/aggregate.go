// Package report turns benchmark results into derived metrics and
// renders them as text, markdown, JSON or TOML.
package report

import (
	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/bench"
)

// Row is a Result with its derived metrics.
type Row struct {
	bench.Result

	// DirtyPercent is the dirty-rect time as a percentage of the full-upload time.
	DirtyPercent float64 `json:"dirty_percent" toml:"dirty_percent"`
	// Speedup is the full-upload time divided by the dirty-rect time.
	Speedup float64 `json:"speedup" toml:"speedup"`
	// MegapixelsPerSec is the full-upload throughput.
	MegapixelsPerSec float64 `json:"megapixels_per_sec" toml:"megapixels_per_sec"`
}

// NewRow computes the derived metrics of r. A zero divisor yields zero.
func NewRow(r bench.Result) Row {
	row := Row{Result: r}
	if r.FullAvgMs > 0 {
		row.DirtyPercent = r.SubAvgMs / r.FullAvgMs * 100
		row.MegapixelsPerSec = float64(r.Width) * float64(r.Height) / (r.FullAvgMs * 1000)
	}
	if r.SubAvgMs > 0 {
		row.Speedup = r.FullAvgMs / r.SubAvgMs
	}
	return row
}

// Totals is the running sum over valid rows. The zero value is empty.
type Totals struct {
	FullMs  float64
	SubMs   float64
	Count   int
	Invalid int
}

// With returns the totals including row. Invalid rows are only counted.
func (t Totals) With(row Row) Totals {
	if row.Invalid {
		t.Invalid++
		return t
	}
	t.FullMs += row.FullTotalMs
	t.SubMs += row.SubTotalMs
	t.Count++
	return t
}

// Best is the highest per-resolution speedup seen. The zero value is empty.
type Best struct {
	Speedup    float64
	Resolution texbench.Resolution
}

// Fold returns the best of b and row. Ties keep b, and invalid rows are ignored.
func (b Best) Fold(row Row) Best {
	if row.Invalid || row.Speedup <= b.Speedup {
		return b
	}
	return Best{Speedup: row.Speedup, Resolution: row.Resolution()}
}

// Summary is the finalized aggregate over a sweep.
type Summary struct {
	FullTotalMs    float64             `json:"full_total_ms" toml:"full_total_ms"`
	SubTotalMs     float64             `json:"sub_total_ms" toml:"sub_total_ms"`
	OverallPercent float64             `json:"overall_percent" toml:"overall_percent"`
	OverallSpeedup float64             `json:"overall_speedup" toml:"overall_speedup"`
	BestSpeedup    float64             `json:"best_speedup" toml:"best_speedup"`
	BestResolution texbench.Resolution `json:"best_resolution" toml:"best_resolution"`
	Count          int                 `json:"count" toml:"count"`
	Invalid        int                 `json:"invalid,omitempty" toml:"invalid,omitempty"`
}

// Finalize computes the overall ratios of t and b.
func Finalize(t Totals, b Best) Summary {
	s := Summary{
		FullTotalMs:    t.FullMs,
		SubTotalMs:     t.SubMs,
		BestSpeedup:    b.Speedup,
		BestResolution: b.Resolution,
		Count:          t.Count,
		Invalid:        t.Invalid,
	}
	if t.FullMs > 0 {
		s.OverallPercent = t.SubMs / t.FullMs * 100
	}
	if t.SubMs > 0 {
		s.OverallSpeedup = t.FullMs / t.SubMs
	}
	return s
}

// Aggregator folds a stream of results in processing order.
//
// Aggregator is not safe for concurrent use.
type Aggregator struct {
	totals Totals
	best   Best
	rows   []Row
}

// Add derives the row for r and folds it into the aggregate.
func (a *Aggregator) Add(r bench.Result) Row {
	row := NewRow(r)
	a.totals = a.totals.With(row)
	a.best = a.best.Fold(row)
	a.rows = append(a.rows, row)
	return row
}

// Rows returns the rows added so far, in order.
func (a *Aggregator) Rows() []Row {
	return append([]Row(nil), a.rows...)
}

// Summary finalizes the aggregate of the rows added so far.
func (a *Aggregator) Summary() Summary {
	return Finalize(a.totals, a.best)
}
