// Package simulated provides a GPU-free backend.Device that models a
// texture upload pipeline.
//
// Each upload costs a fixed CPU submit time and occupies an asynchronous
// GPU timeline for bytes/bandwidth. Fences signal once the timeline
// drains. Time is read from a texbench.Clock, so with a VirtualClock the
// whole pipeline is deterministic and a benchmark run completes
// instantly.
//
// The device can also stall the timeline to force fence timeouts and
// inject an upload error after a fixed number of uploads, which exercises
// the benchmark's failure paths.
//
// The package registers itself as "simulated" with real-clock defaults:
//
//	import _ "github.com/gogpu/texbench/backend/simulated"
//
//	dev, err := backend.Open("simulated")
package simulated
