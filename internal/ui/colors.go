package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
	ColorAccent  lipgloss.Color = "214"
)

// SpinnerColors cycle while the spinner animates.
var SpinnerColors = []lipgloss.Color{"214", "208", "202", "208"}

// SuccessStyle renders confirmations.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// ErrorStyle renders failures.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// MutedStyle renders secondary text such as timings and hints.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// LabelStyle renders the label column in Fields.
func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
}
