package report

import (
	"encoding/json"
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/texbench/backend"
)

// Document is the structured form of a complete report.
type Document struct {
	Iterations    int                `json:"iterations" toml:"iterations"`
	TimeoutPolicy string             `json:"timeout_policy,omitempty" toml:"timeout_policy,omitempty"`
	Backend       string             `json:"backend" toml:"backend"`
	Device        backend.DeviceInfo `json:"device" toml:"device"`
	Results       []Row              `json:"results" toml:"results"`
	Summary       Summary            `json:"summary" toml:"summary"`
}

// documentWriter collects rows and encodes one Document at End.
type documentWriter struct {
	w      io.Writer
	encode func(io.Writer, *Document) error
	doc    Document
}

func (d *documentWriter) Begin(h Header) error {
	d.doc = Document{
		Iterations:    h.Iterations,
		TimeoutPolicy: h.TimeoutPolicy,
		Backend:       h.Device.Backend,
		Device:        h.Device,
		Results:       make([]Row, 0, h.ResolutionCount),
	}
	return nil
}

func (d *documentWriter) Row(r Row) error {
	d.doc.Results = append(d.doc.Results, r)
	return nil
}

func (d *documentWriter) End(s Summary) error {
	d.doc.Summary = s
	return d.encode(d.w, &d.doc)
}

func encodeJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func encodeTOML(w io.Writer, doc *Document) error {
	return toml.NewEncoder(w).Encode(doc)
}
