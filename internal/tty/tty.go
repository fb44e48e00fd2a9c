// Package tty wraps golang.org/x/term for the shell: raw mode switching on the
// controlling terminal and the line editor that runs in raw mode.
package tty

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// RawMode switches a file descriptor between raw and line-buffered mode.
// Every method is a no-op when the descriptor is not a terminal.
type RawMode struct {
	fd    int
	saved *term.State
	raw   bool
}

// NewRawMode creates a RawMode for f, usually os.Stdin
func NewRawMode(f *os.File) *RawMode {
	return &RawMode{fd: int(f.Fd())}
}

// IsTerminal reports whether the descriptor is a terminal
func (m *RawMode) IsTerminal() bool {
	return term.IsTerminal(m.fd)
}

// EnableRaw puts the terminal into raw mode, remembering the cooked state the
// first time it is called.
func (m *RawMode) EnableRaw() error {
	if m.raw || !m.IsTerminal() {
		return nil
	}
	state, err := term.MakeRaw(m.fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	if m.saved == nil {
		m.saved = state
	}
	m.raw = true
	return nil
}

// DisableRaw restores the line-buffered state saved by EnableRaw
func (m *RawMode) DisableRaw() error {
	if !m.raw || m.saved == nil {
		return nil
	}
	if err := term.Restore(m.fd, m.saved); err != nil {
		return fmt.Errorf("failed to leave raw mode: %w", err)
	}
	m.raw = false
	return nil
}

