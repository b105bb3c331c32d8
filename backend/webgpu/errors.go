package webgpu

import "errors"

// Package errors for the webgpu backend.
var (
	// ErrWindow is returned when the GLFW window cannot be created.
	ErrWindow = errors.New("webgpu: window creation failed")

	// ErrNoQueue is returned when the device has no queue.
	ErrNoQueue = errors.New("webgpu: queue retrieval failed")

	// ErrWorkDone is returned when the queue reports a failed work-done callback.
	ErrWorkDone = errors.New("webgpu: submitted work failed")
)
