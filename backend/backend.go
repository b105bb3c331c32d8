package backend

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered
	// or was compiled out.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoAdapter is returned when a backend finds no usable GPU adapter.
	ErrNoAdapter = errors.New("backend: no GPU adapter available")

	// ErrCapability is returned when a device does not meet the minimum requirements.
	ErrCapability = errors.New("backend: minimum capability not met")

	// ErrClosed is returned when a device is used after Close.
	ErrClosed = errors.New("backend: device closed")

	// ErrUnknownTexture is recorded when an upload targets a texture that does not exist.
	ErrUnknownTexture = errors.New("backend: unknown texture")

	// ErrUnknownFence is returned when waiting on a fence that does not exist.
	ErrUnknownFence = errors.New("backend: unknown fence")

	// ErrInvalidRegion is recorded when an upload region lies outside its texture.
	ErrInvalidRegion = errors.New("backend: region outside texture")

	// ErrShortBuffer is recorded when the pixel slice is smaller than the upload needs.
	ErrShortBuffer = errors.New("backend: pixel data too short")

	// ErrInvalidDimensions is returned when a texture size is not positive.
	ErrInvalidDimensions = errors.New("backend: invalid dimensions")
)

// TextureID identifies a texture owned by a Device.
type TextureID uint64

// FenceID identifies a completion marker inserted into a Device's command stream.
type FenceID uint64

// InvalidID is the zero value for both TextureID and FenceID.
const InvalidID = 0

// Format is the texel format of a texture and its upload data.
type Format int

const (
	// FormatBGRA8 stores one byte each of blue, green, red and alpha.
	FormatBGRA8 Format = iota
)

// BytesPerPixel returns the size of one texel in the format.
func (f Format) BytesPerPixel() int {
	return 4
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatBGRA8:
		return "BGRA8"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Filter is a texture sampling filter.
type Filter int

const (
	// FilterLinear selects bilinear filtering for minification and magnification.
	FilterLinear Filter = iota
	// FilterNearest selects nearest-texel filtering.
	FilterNearest
)

// Wrap is a texture addressing mode.
type Wrap int

const (
	// WrapClampToEdge clamps coordinates to the edge texels.
	WrapClampToEdge Wrap = iota
	// WrapRepeat tiles the texture.
	WrapRepeat
)

// TextureDescriptor describes a 2D texture to create.
type TextureDescriptor struct {
	// Label is an optional debug name.
	Label string
	// Width and Height are the texture size in texels.
	Width, Height int
	// Format is the texel format; uploads use the same format.
	Format Format
	// Filter and Wrap configure the sampler attached to the texture.
	Filter Filter
	Wrap   Wrap
}

// Validate checks that the descriptor has positive dimensions.
func (d TextureDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	return nil
}

// RowBytes returns the tightly packed row stride of the texture in bytes.
func (d TextureDescriptor) RowBytes() int {
	return d.Width * d.Format.BytesPerPixel()
}

// Device is the narrow GPU capability set the benchmark depends on.
//
// Uploads only submit work and never report errors directly. Misuse and
// driver failures are recorded and returned by the next QueryError call,
// so that error checks stay outside the timed loops.
//
// A Device is driven from a single goroutine.
type Device interface {
	// Name returns the registered backend name (e.g., "vulkan", "simulated").
	Name() string

	// Info describes the adapter and driver behind the device.
	Info() DeviceInfo

	// CreateTexture allocates a texture with its sampler and upload state.
	CreateTexture(desc TextureDescriptor) (TextureID, error)

	// UploadFull replaces the entire texture with pixels, which must hold
	// Width*Height texels in the texture's format.
	UploadFull(id TextureID, pixels []byte)

	// UploadRegion replaces the region of the texture with the same region
	// of pixels. pixels is a full frame laid out with the texture's row stride.
	UploadRegion(id TextureID, region image.Rectangle, pixels []byte)

	// InsertFence inserts a completion marker after all previously submitted
	// work and flushes pending commands to the GPU.
	InsertFence() (FenceID, error)

	// WaitFence blocks until the fence is signaled or timeout elapses.
	// It returns false without an error on timeout. The fence is released
	// in both cases and must not be waited on again.
	WaitFence(id FenceID, timeout time.Duration) (bool, error)

	// DestroyTexture releases the texture and everything created with it.
	DestroyTexture(id TextureID)

	// QueryError returns the first error recorded since the previous call
	// and clears it.
	QueryError() error

	// Close releases the device. The device must not be used afterwards.
	Close()
}

// UploadBytes returns the number of bytes a region upload reads from the frame.
func UploadBytes(region image.Rectangle, f Format) int {
	return region.Dx() * region.Dy() * f.BytesPerPixel()
}

// RegionOffset returns the byte offset of the region origin in a frame of the given stride.
func RegionOffset(region image.Rectangle, rowBytes int, f Format) int {
	return region.Min.Y*rowBytes + region.Min.X*f.BytesPerPixel()
}

// CheckRegion validates a region upload against a texture and its pixel slice.
// It returns ErrInvalidRegion or ErrShortBuffer.
func CheckRegion(desc TextureDescriptor, region image.Rectangle, pixels []byte) error {
	bounds := image.Rect(0, 0, desc.Width, desc.Height)
	if region.Min.X < 0 || region.Min.Y < 0 || !region.In(bounds) && !region.Empty() {
		return fmt.Errorf("%w: %v not in %v", ErrInvalidRegion, region, bounds)
	}
	if region.Empty() {
		return nil
	}
	rowBytes := desc.RowBytes()
	last := RegionOffset(region, rowBytes, desc.Format) +
		(region.Dy()-1)*rowBytes + region.Dx()*desc.Format.BytesPerPixel()
	if len(pixels) < last {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, last, len(pixels))
	}
	return nil
}

// CheckFull validates a full upload's pixel slice against a texture.
func CheckFull(desc TextureDescriptor, pixels []byte) error {
	need := desc.RowBytes() * desc.Height
	if len(pixels) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(pixels))
	}
	return nil
}
