package terminal

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// MakeRaw puts f into raw mode when it is a terminal and returns the restore
// function. For non-terminals it reports raw=false and restore is a no-op.
func MakeRaw(f *os.File) (raw bool, restore func(), err error) {
	if !IsInteractive(f) {
		return false, func() {}, nil
	}
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return false, func() {}, err
	}
	return true, func() { _ = term.Restore(fd, state) }, nil
}

// Width returns the terminal width of f, or fallback when unknown.
func Width(f *os.File, fallback int) int {
	if !IsInteractive(f) {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
