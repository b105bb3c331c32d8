package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/texbench/backend"
)

// ErrUnknownFormat is returned for an unsupported report format.
var ErrUnknownFormat = errors.New("report: unknown format")

// Format selects a report writer.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatTOML     Format = "toml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatJSON, FormatTOML}
}

// ParseFormat parses a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatJSON, FormatTOML:
		return f, nil
	case "", "txt":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Header describes the run before any row is written.
type Header struct {
	Iterations      int
	ResolutionCount int
	TimeoutPolicy   string
	Device          backend.DeviceInfo
}

// Writer renders a report. Begin is called once, then Row once per
// resolution in order, then End once.
type Writer interface {
	Begin(h Header) error
	Row(r Row) error
	End(s Summary) error
}

// WriterOption configures NewWriter.
type WriterOption func(*writerOptions)

type writerOptions struct {
	pretty bool
	width  int
}

// WithPretty renders markdown for a terminal. It only affects FormatMarkdown.
func WithPretty(pretty bool) WriterOption {
	return func(o *writerOptions) { o.pretty = pretty }
}

// WithWordWrap sets the terminal width for pretty output.
func WithWordWrap(width int) WriterOption {
	return func(o *writerOptions) { o.width = width }
}

// NewWriter returns a Writer for format that writes to w.
func NewWriter(format Format, w io.Writer, opts ...WriterOption) (Writer, error) {
	var o writerOptions
	for _, opt := range opts {
		opt(&o)
	}
	switch format {
	case FormatText:
		return &textWriter{w: w}, nil
	case FormatMarkdown:
		return newMarkdownWriter(w, o), nil
	case FormatJSON:
		return &documentWriter{w: w, encode: encodeJSON}, nil
	case FormatTOML:
		return &documentWriter{w: w, encode: encodeTOML}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
