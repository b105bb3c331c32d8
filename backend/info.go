package backend

import (
	"fmt"
	"strings"
)

// DeviceInfo describes the adapter and driver behind a Device.
// Fields a backend cannot query are left empty or zero.
type DeviceInfo struct {
	Backend         string `json:"backend" toml:"backend"`
	Vendor          string `json:"vendor" toml:"vendor"`
	Renderer        string `json:"renderer" toml:"renderer"`
	DriverVersion   string `json:"driver_version,omitempty" toml:"driver_version,omitempty"`
	ShadingLanguage string `json:"shading_language,omitempty" toml:"shading_language,omitempty"`
	APIVersion      string `json:"api_version,omitempty" toml:"api_version,omitempty"`
	MaxTextureSize  int    `json:"max_texture_size" toml:"max_texture_size"`
	TextureUnits    int    `json:"texture_units,omitempty" toml:"texture_units,omitempty"`
	ExtensionCount  int    `json:"extension_count,omitempty" toml:"extension_count,omitempty"`
}

// String returns a one-line summary of the device.
func (i DeviceInfo) String() string {
	var sb strings.Builder
	sb.WriteString(i.Backend)
	if i.Renderer != "" {
		sb.WriteString(": ")
		sb.WriteString(i.Renderer)
	}
	if i.Vendor != "" {
		fmt.Fprintf(&sb, " (%s)", i.Vendor)
	}
	return sb.String()
}

// Requirements lists the minimum capabilities a benchmark run needs.
type Requirements struct {
	// MinTextureSize is the smallest acceptable maximum texture dimension.
	MinTextureSize int
}

// CheckRequirements reports ErrCapability if info does not satisfy req.
// A zero MaxTextureSize means the backend could not query the limit and
// is accepted.
func CheckRequirements(info DeviceInfo, req Requirements) error {
	if info.MaxTextureSize == 0 || req.MinTextureSize <= 0 {
		return nil
	}
	if info.MaxTextureSize < req.MinTextureSize {
		return fmt.Errorf("%w: max texture size %d < %d",
			ErrCapability, info.MaxTextureSize, req.MinTextureSize)
	}
	return nil
}
