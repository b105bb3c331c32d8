// Command texbench measures full texture uploads against dirty-rect
// sub-updates across a sweep of resolutions.
//
// Usage:
//
//	texbench [iterations] [WIDTHxHEIGHT ...] [flags]
//
// With no resolution arguments the built-in sweep of 24 resolutions from
// 128x128 to 3840x2160 is measured.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(execute(context.Background(), os.Stdout, os.Stderr))
}
