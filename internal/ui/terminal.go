package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// Interactive reports whether stdout is a terminal outside CI, so spinners
// and animations can run.
func Interactive() bool {
	if IsCI() {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
