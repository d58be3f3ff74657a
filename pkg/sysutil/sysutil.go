// Package sysutil provides the small amount of OS-facing terminal
// introspection the front end needs to decide how to report diagnostics:
// whether a stream is a real terminal, and if so how wide it is. It has no
// bearing on parsing or expansion; it exists so cmd/shparse can choose
// between a plain and a column-aware diagnostic renderer.
package sysutil

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsATTY reports whether fd refers to a terminal, on both real ttys and
// Cygwin's pty emulation.
func IsATTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// TerminalWidth returns file's terminal width in columns, or the fallback
// width (conventionally 80) if file isn't a terminal or the ioctl fails.
func TerminalWidth(file *os.File, fallback int) int {
	if !IsATTY(file.Fd()) {
		return fallback
	}
	_, col := winSize(file)
	if col <= 0 {
		return fallback
	}
	return col
}
