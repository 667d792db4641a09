package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []HelpBinding{
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "r", Desc: "Poll node status now"},
	{Key: "up / down", Desc: "Select preset command"},
	{Key: "Enter", Desc: "Run selected command"},
	{Key: ":", Desc: "Type a command (e.g. getblock <hash> 2)"},
	{Key: "j / k", Desc: "Scroll output"},
	{Key: "PgUp / PgDn", Desc: "Page output"},
	{Key: "Home / End", Desc: "Top / bottom of output"},
	{Key: "h", Desc: "Hide / show wallet amounts"},
	{Key: "w", Desc: "Address & QR overlay"},
	{Key: "Esc", Desc: "Close / clear message"},
	{Key: "?", Desc: "Toggle this help"},
}

// overlayBindings are listed under the main shortcuts.
var overlayBindings = []HelpBinding{
	{Key: "Ctrl+N", Desc: "New address, save to book"},
	{Key: "Ctrl+G", Desc: "New address, don't save"},
	{Key: "Ctrl+Y", Desc: "Copy address"},
	{Key: "up / down", Desc: "Pick a saved address"},
	{Key: "Esc / Ctrl+X", Desc: "Close overlay"},
}

// Help overlay styles
var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Background(ColorSurfaceBg).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(16)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

func renderBindings(bindings []HelpBinding) []string {
	lines := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		lines = append(lines, helpKeyStyle.Render(binding.Key)+helpDescStyle.Render(binding.Desc))
	}
	return lines
}

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	var lines []string
	lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts"))
	lines = append(lines, "")
	lines = append(lines, renderBindings(helpBindings)...)
	lines = append(lines, "")
	lines = append(lines, helpTitleStyle.Render("Address overlay"))
	lines = append(lines, renderBindings(overlayBindings)...)
	lines = append(lines, "")
	lines = append(lines, LabelStyle.Render("Press ? to close"))

	helpBox := helpBoxStyle.Render(strings.Join(lines, "\n"))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg),
	)
}
