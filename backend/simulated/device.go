package simulated

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
)

// ErrInjected is the error recorded by WithFailAfter.
var ErrInjected = errors.New("simulated: injected upload failure")

func init() {
	backend.Register(backend.BackendSimulated, func() (backend.Device, error) {
		return New(), nil
	})
}

func slogger() *slog.Logger { return texbench.Logger() }

// Device is a modeled backend.Device.
type Device struct {
	mu    sync.Mutex
	cfg   Config
	clock texbench.Clock

	nextID   uint64
	textures map[backend.TextureID]*texture
	fences   map[backend.FenceID]time.Time

	// busyUntil is when the GPU timeline finishes its queued work.
	busyUntil time.Time
	uploads   int
	bytes     int64

	err    error
	closed bool
}

type texture struct {
	desc backend.TextureDescriptor
	data []byte
}

// New creates a Device with DefaultConfig modified by opts.
func New(opts ...Option) *Device {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Bandwidth <= 0 {
		cfg.Bandwidth = DefaultBandwidth
	}
	if cfg.Clock == nil {
		cfg.Clock = texbench.RealClock{}
	}
	return &Device{
		cfg:      cfg,
		clock:    cfg.Clock,
		textures: make(map[backend.TextureID]*texture),
		fences:   make(map[backend.FenceID]time.Time),
	}
}

// Name returns "simulated".
func (d *Device) Name() string { return backend.BackendSimulated }

// Info describes the model.
func (d *Device) Info() backend.DeviceInfo {
	return backend.DeviceInfo{
		Backend:        backend.BackendSimulated,
		Vendor:         "texbench",
		Renderer:       fmt.Sprintf("upload model (%.1f GB/s)", d.cfg.Bandwidth/1e9),
		APIVersion:     "model",
		MaxTextureSize: d.cfg.MaxTextureSize,
	}
}

// Clock returns the time source the model runs on.
func (d *Device) Clock() texbench.Clock { return d.clock }

// Config returns the model parameters.
func (d *Device) Config() Config { return d.cfg }

// Stats returns the number of uploads and bytes accepted so far.
func (d *Device) Stats() (uploads int, bytes int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploads, d.bytes
}

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) recordError(err error) {
	if d.err == nil {
		d.err = err
	}
}

// CreateTexture allocates a modeled texture.
func (d *Device) CreateTexture(desc backend.TextureDescriptor) (backend.TextureID, error) {
	if err := desc.Validate(); err != nil {
		return backend.InvalidID, err
	}
	if limit := d.cfg.MaxTextureSize; limit > 0 && (desc.Width > limit || desc.Height > limit) {
		return backend.InvalidID, fmt.Errorf("%w: %dx%d exceeds %d",
			backend.ErrCapability, desc.Width, desc.Height, limit)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return backend.InvalidID, backend.ErrClosed
	}

	t := &texture{desc: desc}
	if d.cfg.Retain {
		t.data = make([]byte, desc.RowBytes()*desc.Height)
	}
	id := backend.TextureID(d.newID())
	d.textures[id] = t
	return id, nil
}

// UploadFull models a whole-texture upload.
func (d *Device) UploadFull(id backend.TextureID, pixels []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.lookup(id)
	if !ok {
		return
	}
	if err := backend.CheckFull(t.desc, pixels); err != nil {
		d.recordError(err)
		return
	}
	d.upload(t, image.Rect(0, 0, t.desc.Width, t.desc.Height), pixels)
}

// UploadRegion models a sub-rectangle upload from the full-frame pixels.
func (d *Device) UploadRegion(id backend.TextureID, region image.Rectangle, pixels []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.lookup(id)
	if !ok {
		return
	}
	if err := backend.CheckRegion(t.desc, region, pixels); err != nil {
		d.recordError(err)
		return
	}
	d.upload(t, region, pixels)
}

func (d *Device) lookup(id backend.TextureID) (*texture, bool) {
	if d.closed {
		d.recordError(backend.ErrClosed)
		return nil, false
	}
	t, ok := d.textures[id]
	if !ok {
		d.recordError(fmt.Errorf("%w: %d", backend.ErrUnknownTexture, id))
	}
	return t, ok
}

// upload charges the CPU submit cost and queues the transfer on the GPU
// timeline. Caller must hold d.mu.
func (d *Device) upload(t *texture, region image.Rectangle, pixels []byte) {
	d.uploads++
	if d.cfg.FailAfter > 0 && d.uploads > d.cfg.FailAfter {
		d.recordError(fmt.Errorf("%w: upload %d", ErrInjected, d.uploads))
		return
	}

	n := backend.UploadBytes(region, t.desc.Format)
	d.bytes += int64(n)
	if t.data != nil {
		copyRegion(t.data, pixels, region, t.desc.RowBytes(), t.desc.Format.BytesPerPixel())
	}

	d.clock.Sleep(d.cfg.SubmitCost)
	start := d.clock.Now()
	if d.busyUntil.After(start) {
		start = d.busyUntil
	}
	d.busyUntil = start.Add(d.transferTime(n))
}

func (d *Device) transferTime(n int) time.Duration {
	return time.Duration(float64(n) * float64(time.Second) / d.cfg.Bandwidth)
}

// copyRegion copies region rows from a full frame into dst, both with the
// same row stride.
func copyRegion(dst, src []byte, region image.Rectangle, rowBytes, bpp int) {
	width := region.Dx() * bpp
	for y := region.Min.Y; y < region.Max.Y; y++ {
		off := y*rowBytes + region.Min.X*bpp
		copy(dst[off:off+width], src[off:off+width])
	}
}

// Contents returns a copy of the texture data when WithRetainedContents is set.
func (d *Device) Contents(id backend.TextureID) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok || t.data == nil {
		return nil, false
	}
	return append([]byte(nil), t.data...), true
}

// InsertFence places a fence at the end of the GPU timeline.
func (d *Device) InsertFence() (backend.FenceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return backend.InvalidID, backend.ErrClosed
	}

	at := d.clock.Now()
	if d.busyUntil.After(at) {
		at = d.busyUntil
	}
	at = at.Add(d.cfg.FenceLatency + d.cfg.Stall)
	d.busyUntil = at

	id := backend.FenceID(d.newID())
	d.fences[id] = at
	return id, nil
}

// WaitFence sleeps on the device clock until the fence signals or the
// timeout elapses.
func (d *Device) WaitFence(id backend.FenceID, timeout time.Duration) (bool, error) {
	d.mu.Lock()
	at, ok := d.fences[id]
	delete(d.fences, id)
	closed := d.closed
	d.mu.Unlock()

	if closed {
		return false, backend.ErrClosed
	}
	if !ok {
		return false, fmt.Errorf("%w: %d", backend.ErrUnknownFence, id)
	}

	wait := at.Sub(d.clock.Now())
	if wait <= 0 {
		return true, nil
	}
	if wait > timeout {
		d.clock.Sleep(timeout)
		slogger().Debug("simulated: fence wait timed out", "remaining", wait-timeout)
		return false, nil
	}
	d.clock.Sleep(wait)
	return true, nil
}

// DestroyTexture drops the texture.
func (d *Device) DestroyTexture(id backend.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, id)
}

// LiveTextures returns the number of textures not yet destroyed.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// QueryError returns and clears the first recorded error.
func (d *Device) QueryError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.err
	d.err = nil
	return err
}

// Close releases all textures.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.textures = make(map[backend.TextureID]*texture)
	d.fences = make(map[backend.FenceID]time.Time)
}

var _ backend.Device = (*Device)(nil)
