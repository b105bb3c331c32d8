// Package texbench measures the cost of replacing a whole 2D texture versus
// updating a few dirty sub-rectangles of it on a GPU.
//
// # Overview
//
// For every resolution in a sweep, texbench generates a deterministic BGRA
// frame, plans three dirty rectangles, and times two upload strategies on
// the same texture:
//
//   - full replace: the whole frame is uploaded once per iteration
//   - dirty update: only the planned rectangles are uploaded per iteration
//
// Each timed loop is closed by a GPU fence, so the measured wall-clock time
// covers execution of the uploads and not just their submission.
//
// # Quick Start
//
//	texbench                     # 24 default resolutions, 100 iterations
//	texbench 200 1920x1080       # one resolution, 200 iterations
//	texbench --backend noop      # dry run without a GPU
//
// # Architecture
//
// The module is organized into:
//   - texbench: resolutions and the shared logger
//   - pixbuf: synthetic frame generation
//   - dirty: dirty rectangle planning
//   - backend: the narrow GPU capability interface and registry
//   - backend/native, backend/webgpu, backend/simulated: implementations
//   - bench: fence-synchronized timer and the per-resolution runner
//   - report: aggregation and report writers
package texbench

// Version information
const (
	// Version is the current version of texbench
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
