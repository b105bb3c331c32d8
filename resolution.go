package texbench

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidResolution is returned when a resolution string does not match WIDTHxHEIGHT.
var ErrInvalidResolution = errors.New("texbench: invalid resolution")

// resolutionPattern matches WIDTHxHEIGHT with decimal dimensions.
var resolutionPattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// Resolution is a texture size in texels.
type Resolution struct {
	Width  int
	Height int
}

// String returns the resolution in WIDTHxHEIGHT form.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Texels returns the number of texels covered by the resolution.
func (r Resolution) Texels() int {
	return r.Width * r.Height
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// MarshalText encodes the resolution as WIDTHxHEIGHT.
func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a WIDTHxHEIGHT string.
func (r *Resolution) UnmarshalText(text []byte) error {
	parsed, err := ParseResolution(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseResolution parses a WIDTHxHEIGHT string such as "1920x1080".
// Both dimensions must be positive.
func ParseResolution(s string) (Resolution, error) {
	m := resolutionPattern.FindStringSubmatch(s)
	if m == nil {
		return Resolution{}, fmt.Errorf("%w: %q (expected WIDTHxHEIGHT)", ErrInvalidResolution, s)
	}
	w, errW := strconv.Atoi(m[1])
	h, errH := strconv.Atoi(m[2])
	if err := errors.Join(errW, errH); err != nil {
		return Resolution{}, fmt.Errorf("%w: %q: %w", ErrInvalidResolution, s, err)
	}
	r := Resolution{Width: w, Height: h}
	if !r.Valid() {
		return Resolution{}, fmt.Errorf("%w: %q (dimensions must be positive)", ErrInvalidResolution, s)
	}
	return r, nil
}

// ParseResolutions parses every string with ParseResolution, stopping at the first error.
func ParseResolutions(values []string) ([]Resolution, error) {
	out := make([]Resolution, 0, len(values))
	for _, v := range values {
		r, err := ParseResolution(v)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// defaultResolutions covers common display and texture sizes from 128x128 to 3840x2160.
var defaultResolutions = [...]Resolution{
	{128, 128}, {256, 256}, {320, 240}, {400, 300}, {512, 512}, {640, 480}, {800, 600}, {1024, 512},
	{1024, 768}, {1152, 864}, {1280, 720}, {1280, 800}, {1366, 768}, {1440, 900}, {1600, 900}, {1680, 1050},
	{1600, 1200}, {1920, 1080}, {1920, 1200}, {2048, 1152}, {2560, 1080}, {2560, 1440}, {3440, 1440},
	{3840, 2160},
}

// DefaultResolutions returns the built-in sweep used when no resolution is requested.
// The returned slice is a fresh copy.
func DefaultResolutions() []Resolution {
	out := make([]Resolution, len(defaultResolutions))
	copy(out, defaultResolutions[:])
	return out
}

// MaxDimension returns the largest width or height across resolutions, or 0 if empty.
func MaxDimension(resolutions []Resolution) int {
	m := 0
	for _, r := range resolutions {
		m = max(m, r.Width, r.Height)
	}
	return m
}
