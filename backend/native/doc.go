// Package native provides texture upload devices on top of gogpu/wgpu's
// hardware abstraction layer.
//
// Two backends are registered: "vulkan" opens the first discrete or
// integrated Vulkan adapter, and "noop" opens the HAL's no-op device,
// which accepts every command and signals fences immediately.
//
// Build with the nogpu tag to leave both backends out.
package native
