//go:build !glfw

package webgpu

import "github.com/gogpu/texbench/backend"

// init registers a nil-returning factory when the glfw tag is not set,
// so backend.Open(backend.BackendWebGPU) reports the backend as
// unavailable instead of unknown.
func init() {
	backend.Register(backend.BackendWebGPU, func() (backend.Device, error) {
		return nil, nil
	})
}
