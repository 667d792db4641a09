package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	// Bitcoin orange
	ColorAccent    = lipgloss.Color("#F7931A")
	ColorAccentDim = lipgloss.Color("#BF40FF")

	ColorValue = lipgloss.Color("#00FFFF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorCritical).
			Bold(true).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	OKStyle = lipgloss.NewStyle().
		Foreground(ColorHealthy)

	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)
)

// Invocation status glyphs
const (
	GlyphSucceeded = "✓"
	GlyphFailed    = "✗"
	GlyphSelected  = "›"
)

// PendingSpinnerFrames animate pending invocations and the in-flight poll.
var PendingSpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// PendingSpinner returns the frame for index i.
func PendingSpinner(i int) string {
	return PendingSpinnerFrames[i%len(PendingSpinnerFrames)]
}

// SyncColor colors verification progress: green once synced, amber while
// catching up, red when barely started.
func SyncColor(progress float64) lipgloss.Color {
	switch {
	case progress >= 0.9999:
		return ColorHealthy
	case progress >= 0.5:
		return ColorWarning
	default:
		return ColorCritical
	}
}

// ProgressBar renders a bracketless bar for a fraction in [0, 1].
func ProgressBar(width int, progress float64) string {
	if width < 1 {
		width = 1
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return lipgloss.NewStyle().Foreground(SyncColor(progress)).Render(bar)
}

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders a content line with left and right borders, padded to width.
// Content wider than the box is not truncated here; callers clip first.
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)

	padding := width - 4 - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}
