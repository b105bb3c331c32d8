package bench

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a Runner attempts to skip or
// revisit a state.
var ErrInvalidTransition = errors.New("bench: invalid state transition")

// State is the measurement state of one resolution.
type State int

const (
	// Created means the texture and its sampler are allocated.
	Created State = iota

	// Warmed means the warm-up uploads have completed on the GPU.
	Warmed

	// FullTimed means the full-replace loop has been measured.
	FullTimed

	// SubTimed means the dirty sub-update loop has been measured.
	SubTimed

	// TornDown means the texture has been released.
	TornDown
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Warmed:
		return "Warmed"
	case FullTimed:
		return "FullTimed"
	case SubTimed:
		return "SubTimed"
	case TornDown:
		return "TornDown"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// CanTransition reports whether to may follow s. States advance one at a
// time, except that any state other than TornDown may go straight to
// TornDown when a step fails.
func (s State) CanTransition(to State) bool {
	if s >= TornDown || to > TornDown {
		return false
	}
	return to == s+1 || to == TornDown
}

// checkTransition returns ErrInvalidTransition if to may not follow s.
func checkTransition(s, to State) error {
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}
