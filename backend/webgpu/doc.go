// Package webgpu provides a texture upload device backed by wgpu-native
// through cogentcore/webgpu.
//
// The device owns a hidden GLFW window and its WebGPU surface, so adapter
// selection matches what an on-screen renderer would get.
//
// # Registration
//
// The backend is registered as "webgpu" when the package is imported.
// It is only functional with the "glfw" build tag, which pulls in cgo
// and the GLFW and wgpu-native libraries:
//
//	// Build with: go build -tags glfw
//	import _ "github.com/gogpu/texbench/backend/webgpu"
//
// Without the tag, opening the backend fails with
// backend.ErrBackendNotAvailable.
//
// # Fences
//
// WebGPU has no fence objects. InsertFence submits an empty command
// buffer, which flushes pending texture writes, and registers a
// work-done callback. WaitFence polls the device until the callback
// fires or the timeout elapses.
//
// # Threading
//
// GLFW requires the main thread. Opening the device locks the calling
// goroutine to its OS thread; open it from main.
package webgpu
