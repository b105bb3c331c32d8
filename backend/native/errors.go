//go:build !nogpu

package native

import "errors"

// ErrHALUnavailable is returned when the requested HAL backend is not compiled in.
var ErrHALUnavailable = errors.New("native: HAL backend not available")
