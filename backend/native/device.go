//go:build !nogpu

package native

import (
	"fmt"
	"image"
	"log/slog"
	"math/bits"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan HAL backend

	"github.com/gogpu/texbench"
	"github.com/gogpu/texbench/backend"
)

func init() {
	backend.Register(backend.BackendVulkan, OpenVulkan)
	backend.Register(backend.BackendNoop, OpenNoop)
}

func slogger() *slog.Logger { return texbench.Logger() }

// instanceFactory is the part of a HAL backend needed to start a device.
type instanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Device implements backend.Device with a HAL device and queue.
//
// Thread Safety: Device is safe for concurrent use, but the benchmark
// drives it from a single goroutine.
type Device struct {
	mu       sync.Mutex
	name     string
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	info     backend.DeviceInfo

	// ID generation; 0 is backend.InvalidID.
	nextID uint64

	textures map[backend.TextureID]*texture
	// fences maps a fence to the queue submission index it waits for.
	fences map[backend.FenceID]uint64

	// err is the first error recorded since the last QueryError.
	err    error
	closed bool
}

// OpenVulkan opens a device on the preferred Vulkan adapter.
func OpenVulkan() (backend.Device, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan", ErrHALUnavailable)
	}
	return open(backend.BackendVulkan, b)
}

// OpenNoop opens the no-op HAL device.
func OpenNoop() (backend.Device, error) {
	return open(backend.BackendNoop, &noop.API{})
}

func open(name string, f instanceFactory) (*Device, error) {
	instance, err := f.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, backend.ErrNoAdapter
	}
	selected := selectAdapter(adapters)

	limits := adapterLimits(selected)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	d := &Device{
		name:     name,
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		textures: make(map[backend.TextureID]*texture),
		fences:   make(map[backend.FenceID]uint64),
		info: backend.DeviceInfo{
			Backend:         name,
			Vendor:          selected.Info.Vendor,
			Renderer:        selected.Info.Name,
			DriverVersion:   selected.Info.Driver,
			ShadingLanguage: shaderModel(selected.Capabilities.DownlevelCapabilities.ShaderModel),
			APIVersion:      fmt.Sprint(selected.Info.Backend),
			MaxTextureSize:  int(limits.MaxTextureDimension2D),
			TextureUnits:    int(limits.MaxSampledTexturesPerShaderStage),
			ExtensionCount:  bits.OnesCount64(uint64(selected.Features)),
		},
	}
	slogger().Info("native: device opened",
		"backend", name,
		"adapter", selected.Info.Name,
		"type", fmt.Sprint(selected.Info.DeviceType))
	return d, nil
}

// selectAdapter prefers discrete or integrated GPUs over software and
// virtual adapters, falling back to the first one enumerated.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// adapterLimits returns the limits the adapter reports, or the WebGPU
// defaults when it reports none.
func adapterLimits(a *hal.ExposedAdapter) gputypes.Limits {
	limits := a.Capabilities.Limits
	if limits.MaxTextureDimension2D == 0 {
		return gputypes.DefaultLimits()
	}
	return limits
}

// shaderModel formats a HAL shader model such as 60 as "SM 6.0".
func shaderModel(sm uint32) string {
	if sm == 0 {
		return ""
	}
	return fmt.Sprintf("SM %d.%d", sm/10, sm%10)
}

// Name returns the registered backend name.
func (d *Device) Name() string { return d.name }

// Info returns the adapter description captured at open time.
func (d *Device) Info() backend.DeviceInfo { return d.info }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// recordError keeps the first error until QueryError clears it.
// Caller must hold d.mu.
func (d *Device) recordError(err error) {
	if d.err == nil {
		d.err = err
	}
}

// CreateTexture creates the texture, its view and sampler.
func (d *Device) CreateTexture(desc backend.TextureDescriptor) (backend.TextureID, error) {
	if err := desc.Validate(); err != nil {
		return backend.InvalidID, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return backend.InvalidID, backend.ErrClosed
	}

	tex, err := createTexture(d.device, desc)
	if err != nil {
		return backend.InvalidID, err
	}
	id := backend.TextureID(d.newID())
	d.textures[id] = tex
	slogger().Debug("native: texture created", "id", id, "width", desc.Width, "height", desc.Height)
	return id, nil
}

// UploadFull writes the whole texture from pixels.
func (d *Device) UploadFull(id backend.TextureID, pixels []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := d.lookup(id)
	if !ok {
		return
	}
	if err := backend.CheckFull(tex.desc, pixels); err != nil {
		d.recordError(err)
		return
	}
	if err := tex.write(d.queue, image.Rect(0, 0, tex.desc.Width, tex.desc.Height), pixels); err != nil {
		d.recordError(err)
	}
}

// UploadRegion writes region of the texture from the same region of the
// full-frame pixels.
func (d *Device) UploadRegion(id backend.TextureID, region image.Rectangle, pixels []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := d.lookup(id)
	if !ok {
		return
	}
	if err := backend.CheckRegion(tex.desc, region, pixels); err != nil {
		d.recordError(err)
		return
	}
	if region.Empty() {
		return
	}
	if err := tex.write(d.queue, region, pixels); err != nil {
		d.recordError(err)
	}
}

// lookup returns the texture or records why it cannot be used.
// Caller must hold d.mu.
func (d *Device) lookup(id backend.TextureID) (*texture, bool) {
	if d.closed {
		d.recordError(backend.ErrClosed)
		return nil, false
	}
	tex, ok := d.textures[id]
	if !ok {
		d.recordError(fmt.Errorf("%w: %d", backend.ErrUnknownTexture, id))
		return nil, false
	}
	return tex, true
}

// pollInterval is how often WaitFence checks the completed submission index.
const pollInterval = 50 * time.Microsecond

// InsertFence submits an empty batch after all queued writes and keeps its
// submission index as the fence.
func (d *Device) InsertFence() (backend.FenceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return backend.InvalidID, backend.ErrClosed
	}

	idx, err := d.queue.Submit(nil)
	if err != nil {
		return backend.InvalidID, fmt.Errorf("submit: %w", err)
	}
	id := backend.FenceID(d.newID())
	d.fences[id] = idx
	return id, nil
}

// WaitFence polls the queue until the fence's submission completes or the
// timeout expires, and releases the fence either way.
func (d *Device) WaitFence(id backend.FenceID, timeout time.Duration) (bool, error) {
	d.mu.Lock()
	idx, ok := d.fences[id]
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
	for d.queue.PollCompleted() < idx {
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
	return true, nil
}

// DestroyTexture releases the texture, view and sampler.
// Unknown IDs are ignored.
func (d *Device) DestroyTexture(id backend.TextureID) {
	d.mu.Lock()
	tex, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()

	if ok {
		tex.destroy(d.device)
	}
}

// QueryError returns and clears the first recorded error.
func (d *Device) QueryError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.err
	d.err = nil
	return err
}

// Close destroys remaining resources, the device and the instance.
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

	for _, tex := range textures {
		tex.destroy(d.device)
	}
	d.device.Destroy()
	d.instance.Destroy()
	slogger().Info("native: device closed", "backend", d.name)
}

var _ backend.Device = (*Device)(nil)
