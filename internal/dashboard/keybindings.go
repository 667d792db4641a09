package dashboard

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Mode decides which keys the dashboard listens to.
type Mode int

const (
	ModeNormal Mode = iota
	// ModeCommand is the free-form command line opened with ':'.
	ModeCommand
	// ModeAddress is the address and QR overlay.
	ModeAddress
)

// String returns a human-readable label for the mode.
func (m Mode) String() string {
	switch m {
	case ModeCommand:
		return "command"
	case ModeAddress:
		return "address"
	default:
		return "normal"
	}
}

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeySelectPrev  = "up"
	KeySelectNext  = "down"
	KeyRun         = "enter"
	KeyScrollDown  = "j"
	KeyScrollUp    = "k"
	KeyPageDown    = "pgdown"
	KeyPageUp      = "pgup"
	KeyOutputTop   = "home"
	KeyOutputEnd   = "end"
	KeyCommandLine = ":"
	KeyHideAmounts = "h"
	KeyAddresses   = "w"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"

	// Address overlay
	KeyNewAddressSave = "ctrl+n"
	KeyNewAddress     = "ctrl+g"
	KeyCopyAddress    = "ctrl+y"
	KeyCloseOverlay   = "ctrl+x"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// ctrl+c quits from anywhere
	if key == KeyQuitAlt {
		m.quitting = true
		return true, tea.Quit
	}

	switch m.mode {
	case ModeCommand:
		return m.handleCommandKey(msg)
	case ModeAddress:
		return m.handleAddressKey(msg)
	}

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		if !m.ctl.Refresh() {
			m.flash("status poll already running", false)
		}
		return true, nil

	case KeySelectPrev:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext:
		if m.selected < len(m.commands)-1 {
			m.selected++
		}
		return true, nil

	case KeyRun:
		if len(m.commands) > 0 {
			m.submit(m.commands[m.selected])
		}
		return true, nil

	case KeyScrollDown:
		m.output.LineDown(1)
		return true, nil

	case KeyScrollUp:
		m.output.LineUp(1)
		return true, nil

	case KeyPageDown:
		m.output.PageDown()
		return true, nil

	case KeyPageUp:
		m.output.PageUp()
		return true, nil

	case KeyOutputTop:
		m.output.GotoTop()
		return true, nil

	case KeyOutputEnd:
		m.output.GotoBottom()
		return true, nil

	case KeyCommandLine:
		m.mode = ModeCommand
		m.input.Reset()
		return true, m.input.Focus()

	case KeyHideAmounts:
		m.hideAmounts = !m.hideAmounts
		return true, nil

	case KeyAddresses:
		m.mode = ModeAddress
		return true, m.overlay.open()

	case KeyCollapse:
		m.status = ""
		return true, nil
	}

	return false, nil
}

// handleCommandKey edits the command line. Enter submits; invalid input
// keeps the line open so it can be fixed.
func (m *Model) handleCommandKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyCollapse:
		m.closeCommandLine()
		return true, nil

	case KeyRun:
		line := m.input.Value()
		if strings.TrimSpace(line) == "" {
			m.closeCommandLine()
			return true, nil
		}
		if m.submit(line) {
			m.closeCommandLine()
		}
		return true, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return true, cmd
}

func (m *Model) closeCommandLine() {
	m.mode = ModeNormal
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) handleAddressKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyCollapse, KeyCloseOverlay:
		m.overlay.close()
		m.mode = ModeNormal
		return true, nil

	case KeyNewAddressSave:
		m.requestAddress(true)
		return true, nil

	case KeyNewAddress:
		m.requestAddress(false)
		return true, nil

	case KeyCopyAddress:
		m.copyAddress()
		return true, nil

	case KeySelectPrev:
		m.overlay.step(-1)
		return true, nil

	case KeySelectNext:
		m.overlay.step(1)
		return true, nil
	}

	// Addresses never contain spaces.
	if msg.Type == tea.KeySpace {
		return true, nil
	}

	var cmd tea.Cmd
	m.overlay.input, cmd = m.overlay.input.Update(msg)
	return true, cmd
}
