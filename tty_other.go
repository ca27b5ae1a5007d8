//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package main

// isTerminal assumes a terminal; liner falls back to plain input itself.
func isTerminal(fd uintptr) bool {
	return true
}
