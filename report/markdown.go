package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/texbench/dirty"
)

// markdownWriter writes a GitHub-flavored markdown report. Plain output
// streams rows; pretty output is buffered and rendered with glamour at End.
type markdownWriter struct {
	out    io.Writer
	buf    bytes.Buffer
	w      io.Writer
	p      *message.Printer
	pretty bool
	width  int
	err    error
}

func newMarkdownWriter(w io.Writer, o writerOptions) *markdownWriter {
	m := &markdownWriter{
		out:    w,
		w:      w,
		p:      message.NewPrinter(language.English),
		pretty: o.pretty,
		width:  o.width,
	}
	if m.pretty {
		m.w = &m.buf
	}
	return m
}

func (m *markdownWriter) printf(format string, args ...any) {
	if m.err != nil {
		return
	}
	_, m.err = m.p.Fprintf(m.w, format, args...)
}

func (m *markdownWriter) Begin(h Header) error {
	m.printf("# Texture upload benchmark\n\n")
	if h.Device.Backend != "" {
		m.printf("| Device | |\n|---|---|\n")
		m.printf("| Backend | %s |\n", h.Device.Backend)
		m.printf("| Vendor | %s |\n", orUnknown(h.Device.Vendor))
		m.printf("| Renderer | %s |\n", orUnknown(h.Device.Renderer))
		m.printf("| Max texture size | %d |\n\n", h.Device.MaxTextureSize)
	}
	m.printf("- Iterations per resolution: **%d**\n", h.Iterations)
	m.printf("- Resolutions: **%d**\n", h.ResolutionCount)
	m.printf("- Dirty rects per pass: **%d**\n", dirty.Count)
	if h.TimeoutPolicy != "" {
		m.printf("- Timeout policy: %s\n", h.TimeoutPolicy)
	}
	m.printf("\n| Resolution | Texels | Full avg (ms) | Dirty avg (ms) | Dirty %% | Speedup | MPix/s | Coverage %% |\n")
	m.printf("|---|--:|--:|--:|--:|--:|--:|--:|\n")
	return m.err
}

func (m *markdownWriter) Row(r Row) error {
	res := r.Resolution().String()
	switch {
	case r.Invalid:
		res += " (invalid)"
	case r.TimedOut:
		res += " (timeout)"
	}
	coverage := dirty.Coverage(dirty.Plan(r.Width, r.Height), r.Width, r.Height) * 100
	m.printf("| %s | %d | %.3f | %.3f | %.1f | %.2f | %.2f | %.1f |\n",
		res, r.Resolution().Texels(), r.FullAvgMs, r.SubAvgMs, r.DirtyPercent, r.Speedup, r.MegapixelsPerSec, coverage)
	return m.err
}

func (m *markdownWriter) End(s Summary) error {
	m.printf("\n## Aggregate across %d resolutions\n\n", s.Count)
	m.printf("- Sum full time: %.3f ms\n", s.FullTotalMs)
	m.printf("- Sum dirty time: %.3f ms\n", s.SubTotalMs)
	if s.FullTotalMs > 0 {
		m.printf("- Dirty total is %.1f%% of full (overall speedup **%.2fx**)\n", s.OverallPercent, s.OverallSpeedup)
	}
	if s.Invalid > 0 {
		m.printf("- Excluded %d invalid resolutions (GPU sync timeout)\n", s.Invalid)
	}
	if s.BestSpeedup > 0 {
		m.printf("- Best per-resolution speedup: **%.2fx** at %s\n", s.BestSpeedup, s.BestResolution)
	}
	m.printf("\n_Throughput (MPix/s) is based on full uploads only._\n")
	if m.err != nil || !m.pretty {
		return m.err
	}
	return m.render()
}

// render writes the buffered markdown through glamour.
func (m *markdownWriter) render() error {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if m.width > 0 {
		opts = append(opts, glamour.WithWordWrap(m.width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("report: markdown renderer: %w", err)
	}
	out, err := renderer.Render(m.buf.String())
	if err != nil {
		return fmt.Errorf("report: render markdown: %w", err)
	}
	_, err = io.WriteString(m.out, out)
	return err
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
