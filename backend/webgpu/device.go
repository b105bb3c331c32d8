//go:build glfw

package webgpu

import (
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
)

// Window size of the hidden surface window.
const (
	windowWidth  = 640
	windowHeight = 480
	windowTitle  = "texbench"
)

// pollInterval is the sleep between device polls while waiting on a fence.
const pollInterval = 50 * time.Microsecond

func init() {
	backend.Register(backend.BackendWebGPU, func() (backend.Device, error) {
		dev, err := Open()
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}

func slogger() *slog.Logger { return texbench.Logger() }

// Device implements backend.Device on a wgpu-native device.
type Device struct {
	mu sync.Mutex

	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     backend.DeviceInfo

	nextID   uint64
	textures map[backend.TextureID]*texture
	fences   map[backend.FenceID]*atomic.Int32

	err    error
	closed bool
}

type texture struct {
	desc    backend.TextureDescriptor
	tex     *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

// Fence states stored in the work-done flag.
const (
	fencePending int32 = iota
	fenceSignaled
	fenceFailed
)

// Open creates the hidden window, surface, adapter and device.
func Open() (*Device, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: glfw init: %w", ErrWindow, err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.False)
	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: %w", ErrWindow, err)
	}

	d := &Device{
		window:   win,
		textures: make(map[backend.TextureID]*texture),
		fences:   make(map[backend.FenceID]*atomic.Int32),
	}
	if err := d.init(); err != nil {
		d.release()
		return nil, err
	}
	slogger().Info("webgpu: device opened", "adapter", d.info.Renderer, "api", d.info.APIVersion)
	return d, nil
}

func (d *Device) init() error {
	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(d.window))

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
		CompatibleSurface: d.surface,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrNoAdapter, err)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "texbench device",
	})
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	d.device = device

	d.queue = device.GetQueue()
	if d.queue == nil {
		return ErrNoQueue
	}

	info := adapter.GetInfo()
	limits := adapter.GetLimits()
	d.info = backend.DeviceInfo{
		Backend:        backend.BackendWebGPU,
		Vendor:         info.VendorName,
		Renderer:       info.Name,
		DriverVersion:  info.DriverDescription,
		APIVersion:     fmt.Sprint(info.BackendType),
		MaxTextureSize: int(limits.Limits.MaxTextureDimension2D),
	}
	return nil
}

// release drops whatever init managed to create.
func (d *Device) release() {
	if d.queue != nil {
		d.queue.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.surface != nil {
		d.surface.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
	if d.window != nil {
		d.window.Destroy()
	}
	glfw.Terminate()
}

// Name returns "webgpu".
func (d *Device) Name() string { return backend.BackendWebGPU }

// Info returns the adapter description.
func (d *Device) Info() backend.DeviceInfo { return d.info }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) recordError(err error) {
	if d.err == nil {
		d.err = err
	}
}

// CreateTexture creates the texture, a default view and a sampler.
func (d *Device) CreateTexture(desc backend.TextureDescriptor) (backend.TextureID, error) {
	if err := desc.Validate(); err != nil {
		return backend.InvalidID, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return backend.InvalidID, backend.ErrClosed
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatBGRA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("create texture: %w", err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return backend.InvalidID, fmt.Errorf("create texture view: %w", err)
	}

	addr := wgpu.AddressModeClampToEdge
	if desc.Wrap == backend.WrapRepeat {
		addr = wgpu.AddressModeRepeat
	}
	filter, mip := wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear
	if desc.Filter == backend.FilterNearest {
		filter, mip = wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest
	}
	sampler, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label + " sampler",
		AddressModeU:  addr,
		AddressModeV:  addr,
		AddressModeW:  addr,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mip,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return backend.InvalidID, fmt.Errorf("create sampler: %w", err)
	}

	id := backend.TextureID(d.newID())
	d.textures[id] = &texture{desc: desc, tex: tex, view: view, sampler: sampler}
	return id, nil
}

// UploadFull writes the whole texture.
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
	if err := d.write(t, image.Rect(0, 0, t.desc.Width, t.desc.Height), pixels); err != nil {
		d.recordError(err)
	}
}

// UploadRegion writes region from the full-frame pixels.
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
	if region.Empty() {
		return
	}
	if err := d.write(t, region, pixels); err != nil {
		d.recordError(err)
	}
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

func (d *Device) write(t *texture, region image.Rectangle, pixels []byte) error {
	rowBytes := t.desc.RowBytes()
	err := d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(region.Min.X), Y: uint32(region.Min.Y)},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       uint64(backend.RegionOffset(region, rowBytes, t.desc.Format)),
			BytesPerRow:  uint32(rowBytes),
			RowsPerImage: uint32(t.desc.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(region.Dx()),
			Height:             uint32(region.Dy()),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}

// InsertFence submits an empty command buffer to flush pending writes and
// registers a work-done callback for it.
func (d *Device) InsertFence() (backend.FenceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return backend.InvalidID, backend.ErrClosed
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return backend.InvalidID, fmt.Errorf("create command encoder: %w", err)
	}
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return backend.InvalidID, fmt.Errorf("finish encoder: %w", err)
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	state := new(atomic.Int32)
	d.queue.OnSubmittedWorkDone(func(status wgpu.QueueWorkDoneStatus) {
		if status == wgpu.QueueWorkDoneStatusSuccess {
			state.Store(fenceSignaled)
		} else {
			state.Store(fenceFailed)
		}
	})

	id := backend.FenceID(d.newID())
	d.fences[id] = state
	return id, nil
}

// WaitFence polls the device until the fence's callback fires or the
// timeout elapses.
func (d *Device) WaitFence(id backend.FenceID, timeout time.Duration) (bool, error) {
	d.mu.Lock()
	state, ok := d.fences[id]
	delete(d.fences, id)
	closed := d.closed
	d.mu.Unlock()

	if closed {
		return false, backend.ErrClosed
	}
	if !ok {
		return false, fmt.Errorf("%w: %d", backend.ErrUnknownFence, id)
	}

	deadline := time.Now().Add(timeout)
	for {
		d.device.Poll(false, nil)
		switch state.Load() {
		case fenceSignaled:
			return true, nil
		case fenceFailed:
			return false, ErrWorkDone
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

// DestroyTexture releases the texture, its view and sampler.
func (d *Device) DestroyTexture(id backend.TextureID) {
	d.mu.Lock()
	t, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()

	if ok {
		t.release()
	}
}

func (t *texture) release() {
	t.sampler.Release()
	t.view.Release()
	t.tex.Release()
}

// QueryError returns and clears the first recorded error.
func (d *Device) QueryError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.err
	d.err = nil
	return err
}

// Close releases all GPU objects, the window and GLFW.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	textures := d.textures
	d.textures = nil
	d.fences = nil
	d.mu.Unlock()

	for _, t := range textures {
		t.release()
	}
	d.release()
	slogger().Info("webgpu: device closed")
}

var _ backend.Device = (*Device)(nil)
