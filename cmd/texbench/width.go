package main

import (
	"os"
	"strconv"
)

const defaultWidth = 100

// terminalWidth returns $COLUMNS, or defaultWidth when it is unset or invalid.
func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return defaultWidth
}
