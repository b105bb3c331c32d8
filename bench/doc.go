// Package bench measures texture upload cost on a backend.Device.
//
// A Timer brackets a batch of submitted uploads with a fence, so the
// measured time covers GPU completion and not just submission. A Runner
// drives one resolution through the measurement states
//
//	Created -> Warmed -> FullTimed -> SubTimed -> TornDown
//
// and produces one Result: the time for Iterations full texture
// replacements, and the time for Iterations passes of dirty-rect
// sub-updates. Sweep runs a list of resolutions in order with one
// texture alive at a time.
//
// Upload errors reported by the device are fatal and returned as
// *MeasurementError. A fence that does not signal within the timeout is
// not: the measurement is kept as a lower bound and flagged, or marked
// invalid, according to Config.TimeoutPolicy.
package bench
