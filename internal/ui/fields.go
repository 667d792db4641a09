package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one label/value row.
type Field struct {
	Label string
	Value string
}

// RenderFields lines values up in a column after the longest label.
// Empty values are skipped.
func RenderFields(fields []Field) string {
	width := 0
	for _, f := range fields {
		if f.Value != "" && lipgloss.Width(f.Label) > width {
			width = lipgloss.Width(f.Label)
		}
	}

	var b strings.Builder
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		pad := strings.Repeat(" ", width-lipgloss.Width(f.Label)+2)
		b.WriteString(LabelStyle().Render(f.Label))
		b.WriteString(pad)
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}
