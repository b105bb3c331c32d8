package backend

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Backend names.
const (
	// BackendVulkan is the native Vulkan backend built on gogpu/wgpu.
	BackendVulkan = "vulkan"

	// BackendNoop is the native no-op HAL. It accepts all work and never touches a GPU.
	BackendNoop = "noop"

	// BackendWebGPU is the wgpu-native backend with a GLFW window surface.
	BackendWebGPU = "webgpu"

	// BackendSimulated is the software model of an upload pipeline.
	BackendSimulated = "simulated"
)

// Factory opens a new device.
// A factory that returns (nil, nil) marks its backend as compiled out.
type Factory func() (Device, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
	// Priority order for default selection (first that opens wins).
	// Noop and simulated are never picked implicitly.
	backendPriority = []string{BackendVulkan, BackendWebGPU}
)

// Register adds factory under name. Backend packages call it from init;
// a later registration under the same name wins.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Unregister removes the named factory. Tests use it to undo Register.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(factories, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	return slices.Sorted(maps.Keys(factories))
}

// IsRegistered reports whether name has a factory.
func IsRegistered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens a device from the named backend.
func Open(name string) (Device, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: %q (compiled out)", ErrBackendNotAvailable, name)
	}
	return dev, nil
}

// OpenDefault opens the first backend in priority order that succeeds.
// It returns the last open error, or ErrBackendNotAvailable if no
// priority backend is registered.
func OpenDefault() (Device, error) {
	var lastErr error
	for _, name := range backendPriority {
		if !IsRegistered(name) {
			continue
		}
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrBackendNotAvailable
}
