// Package config loads texbench settings from flags, TEXBENCH_* environment
// variables, a config file and built-in defaults, in that order of precedence.
package config
