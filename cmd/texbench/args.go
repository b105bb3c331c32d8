package main

import (
	"fmt"
	"strconv"

	"github.com/gogpu/texbench"
)

// benchArgs holds the positional arguments of the root command.
type benchArgs struct {
	iterations    int
	hasIterations bool
	resolutions   []string
}

// parseArgs reads an optional all-digit iteration count in first position
// followed by WIDTHxHEIGHT resolutions. Any other argument is rejected.
func parseArgs(args []string) (benchArgs, error) {
	var out benchArgs
	for i, a := range args {
		if i == 0 && allDigits(a) {
			n, err := strconv.Atoi(a)
			if err != nil {
				return benchArgs{}, fmt.Errorf("iterations %q: %w", a, err)
			}
			out.iterations, out.hasIterations = n, true
			continue
		}
		if _, err := texbench.ParseResolution(a); err != nil {
			return benchArgs{}, fmt.Errorf("unrecognized argument %q (expected iterations or WxH)", a)
		}
		out.resolutions = append(out.resolutions, a)
	}
	return out, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
