package host

import "log/slog"

// ModeController hands the terminal from the shell to a blocking line read
// and back. Both directions are no-ops until a shell handle exists.
type ModeController struct {
	raw   RawSwitch
	shell func() *Shell
	log   *slog.Logger

	// depth counts nested suspends; only the outermost pair switches modes
	depth int
}

// Suspend pauses the shell, drops its partial line and leaves raw mode
func (m *ModeController) Suspend() {
	sh := m.shell()
	if sh == nil {
		return
	}
	m.depth++
	if m.depth > 1 {
		return
	}

	sh.pause()
	if err := m.raw.DisableRaw(); err != nil {
		m.log.Debug("suspend", "error", err)
	}
	m.log.Debug("shell suspended")
}

// Resume enters raw mode again and lets the shell continue
func (m *ModeController) Resume() {
	sh := m.shell()
	if sh == nil || m.depth == 0 {
		return
	}
	m.depth--
	if m.depth > 0 {
		return
	}

	if err := m.raw.EnableRaw(); err != nil {
		m.log.Debug("resume", "error", err)
	}
	sh.resume()
	m.log.Debug("shell resumed")
}

// Suspended reports whether a blocking read currently owns the terminal
func (m *ModeController) Suspended() bool {
	return m.depth > 0
}

func (m *ModeController) enter() error {
	return m.raw.EnableRaw()
}

func (m *ModeController) leave() {
	if err := m.raw.DisableRaw(); err != nil {
		m.log.Debug("leave raw mode", "error", err)
	}
}
