//go:build !nogpu

package native

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texbench/backend"
)

// texture holds the HAL resources created for one backend.TextureID.
type texture struct {
	desc    backend.TextureDescriptor
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
}

func createTexture(device hal.Device, desc backend.TextureDescriptor) (*texture, error) {
	label := desc.Label
	if label == "" {
		label = fmt.Sprintf("texbench_%dx%d", desc.Width, desc.Height)
	}
	format := convertFormat(desc.Format)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),  //nolint:gosec // validated positive
			Height:             uint32(desc.Height), //nolint:gosec // validated positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}

	addr := convertWrap(desc.Wrap)
	filter := convertFilter(desc.Filter)
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: addr,
		AddressModeV: addr,
		AddressModeW: addr,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
	})
	if err != nil {
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	return &texture{desc: desc, tex: tex, view: view, sampler: sampler}, nil
}

// write queues a copy of region from the full-frame pixels. The layout
// offset and row stride select the region inside the frame.
func (t *texture) write(queue hal.Queue, region image.Rectangle, pixels []byte) error {
	rowBytes := t.desc.RowBytes()
	err := queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(region.Min.X), Y: uint32(region.Min.Y), Z: 0}, //nolint:gosec // checked against texture bounds
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       uint64(backend.RegionOffset(region, rowBytes, t.desc.Format)), //nolint:gosec // non-negative
			BytesPerRow:  uint32(rowBytes),                                              //nolint:gosec // validated positive
			RowsPerImage: uint32(t.desc.Height),                                         //nolint:gosec // validated positive
		},
		&hal.Extent3D{
			Width:              uint32(region.Dx()), //nolint:gosec // non-empty region
			Height:             uint32(region.Dy()), //nolint:gosec // non-empty region
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}

func (t *texture) destroy(device hal.Device) {
	device.DestroySampler(t.sampler)
	device.DestroyTextureView(t.view)
	device.DestroyTexture(t.tex)
}

func convertFormat(f backend.Format) gputypes.TextureFormat {
	switch f {
	case backend.FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatBGRA8Unorm
	}
}

func convertFilter(f backend.Filter) gputypes.FilterMode {
	if f == backend.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

func convertWrap(w backend.Wrap) gputypes.AddressMode {
	if w == backend.WrapRepeat {
		return gputypes.AddressModeRepeat
	}
	return gputypes.AddressModeClampToEdge
}
