package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/texbench/backend"
)

// Palette.
const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
)

// styles are bound to one output so color is dropped when it is not a terminal.
type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	ok    lipgloss.Style
	bad   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true).Foreground(colorPrimary),
		label: r.NewStyle().Foreground(colorMuted).Width(18),
		value: r.NewStyle(),
		ok:    r.NewStyle().Foreground(colorSuccess),
		bad:   r.NewStyle().Foreground(colorError),
	}
}

// writeDeviceHeader prints the adapter and driver details of info.
func writeDeviceHeader(w io.Writer, info backend.DeviceInfo) error {
	s := newStyles(w)
	rows := [][2]string{
		{"Backend", info.Backend},
		{"Vendor", info.Vendor},
		{"Renderer", info.Renderer},
		{"Driver version", info.DriverVersion},
		{"API version", info.APIVersion},
		{"Shading language", info.ShadingLanguage},
		{"Max texture size", intOrEmpty(info.MaxTextureSize)},
		{"Texture units", intOrEmpty(info.TextureUnits)},
		{"Extensions", intOrEmpty(info.ExtensionCount)},
	}

	lines := []string{s.title.Render("GPU")}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		lines = append(lines, s.label.Render(row[0]+":")+s.value.Render(row[1]))
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, lines...)+"\n")
	return err
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
