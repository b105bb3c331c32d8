// Package pixbuf generates the synthetic frames uploaded by the benchmark.
//
// Frames are a pure function of their size: every texel is derived from its
// (x, y) coordinate, so two frames of the same size are byte-identical and
// timing differences are never attributable to data variation.
package pixbuf

import (
	"encoding/binary"
	"image"
)

// BytesPerPixel is the size of one packed BGRA8 texel.
const BytesPerPixel = 4

// Pixel is one texel split into its channels.
type Pixel struct {
	B, G, R, A uint8
}

// Pack returns the pixel as A<<24 | R<<16 | G<<8 | B.
func (p Pixel) Pack() uint32 {
	return uint32(p.A)<<24 | uint32(p.R)<<16 | uint32(p.G)<<8 | uint32(p.B)
}

// Unpack splits a packed A<<24 | R<<16 | G<<8 | B value.
func Unpack(v uint32) Pixel {
	return Pixel{
		B: uint8(v),
		G: uint8(v >> 8),
		R: uint8(v >> 16),
		A: uint8(v >> 24),
	}
}

// Buffer is a read-only BGRA8 frame with a tightly packed row stride.
type Buffer struct {
	width  int
	height int
	data   []byte // B, G, R, A per texel
}

// PixelAt returns the channels of the texel at (x, y) for any coordinate.
// Each color channel is a linear combination of x and y modulo 256; alpha is opaque.
func PixelAt(x, y int) Pixel {
	return Pixel{
		B: uint8((x*13 + y*7) & 0xFF),
		G: uint8((x*3 + y*11) & 0xFF),
		R: uint8((x*17 + y*5) & 0xFF),
		A: 0xFF,
	}
}

// Generate builds the frame for the given size.
// Dimensions must be positive; non-positive dimensions yield an empty buffer.
func Generate(width, height int) *Buffer {
	if width <= 0 || height <= 0 {
		return &Buffer{}
	}
	b := &Buffer{
		width:  width,
		height: height,
		data:   make([]byte, width*height*BytesPerPixel),
	}
	for y := 0; y < height; y++ {
		row := b.data[y*width*BytesPerPixel : (y+1)*width*BytesPerPixel]
		for x := 0; x < width; x++ {
			p := PixelAt(x, y)
			i := x * BytesPerPixel
			row[i+0] = p.B
			row[i+1] = p.G
			row[i+2] = p.R
			row[i+3] = p.A
		}
	}
	return b
}

// Width returns the frame width in texels.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the frame height in texels.
func (b *Buffer) Height() int {
	return b.height
}

// Len returns the number of texels (width * height).
func (b *Buffer) Len() int {
	return b.width * b.height
}

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	return b.width * BytesPerPixel
}

// Bytes returns the raw upload view in B, G, R, A byte order.
// The slice is shared; callers must not modify it.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// At returns the texel at (x, y). Out-of-range coordinates return the zero Pixel.
func (b *Buffer) At(x, y int) Pixel {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return Pixel{}
	}
	i := (y*b.width + x) * BytesPerPixel
	return Pixel{B: b.data[i], G: b.data[i+1], R: b.data[i+2], A: b.data[i+3]}
}

// Uint32 returns the packed texel at (x, y) as it would be read on a little-endian host.
func (b *Buffer) Uint32(x, y int) uint32 {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0
	}
	i := (y*b.width + x) * BytesPerPixel
	return binary.LittleEndian.Uint32(b.data[i:])
}

// Image converts the frame to a non-premultiplied RGBA image.
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	for i := 0; i < len(b.data); i += BytesPerPixel {
		img.Pix[i+0] = b.data[i+2]
		img.Pix[i+1] = b.data[i+1]
		img.Pix[i+2] = b.data[i+0]
		img.Pix[i+3] = b.data[i+3]
	}
	return img
}

// Bounds returns the frame rectangle anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}
