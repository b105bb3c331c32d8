// Package backend defines the GPU capability set used by the texture upload
// benchmark and a registry of implementations.
//
// A Device creates textures, uploads pixel data to them, and inserts fences
// that can be waited on with a timeout. Everything else about the GPU stays
// behind the interface.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime
// by name. Import the implementations you want:
//
//	import (
//		_ "github.com/gogpu/texbench/backend/native"
//		_ "github.com/gogpu/texbench/backend/simulated"
//		_ "github.com/gogpu/texbench/backend/webgpu"
//	)
//
// # Backend Selection
//
// Use OpenDefault to open the best available hardware backend, or Open
// to request one by name:
//
//	dev, err := backend.OpenDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	dev, err = backend.Open("simulated")
//
// OpenDefault never falls back to the "noop" or "simulated" backends.
//
// # Error Model
//
// Upload calls do not return errors. A failed upload records an error that
// the next QueryError call returns, so callers check once after a batch of
// uploads instead of after each one.
//
// # Available Backends
//
//   - "vulkan": Vulkan via gogpu/wgpu (native package)
//   - "noop": no-op HAL from gogpu/wgpu, accepts all work (native package)
//   - "webgpu": wgpu-native with a GLFW surface, requires the glfw build tag
//   - "simulated": bandwidth model with a virtual or real clock
package backend
