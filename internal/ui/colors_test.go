package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestStylesRenderText(t *testing.T) {
	styles := map[string]lipgloss.Style{
		"success": SuccessStyle(),
		"error":   ErrorStyle(),
		"muted":   MutedStyle(),
		"label":   LabelStyle(),
	}

	for name, style := range styles {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, "text", style.Render("text"))
		})
	}
}

func TestSpinnerColors(t *testing.T) {
	assert.NotEmpty(t, SpinnerColors)
}

func TestRenderFields(t *testing.T) {
	out := RenderFields([]Field{
		{Label: "Network", Value: "main"},
		{Label: "Height", Value: "800,000"},
		{Label: "Best block hash", Value: ""},
	})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, []string{
		"Network  main",
		"Height   800,000",
	}, lines)
}

func TestRenderFieldsEmpty(t *testing.T) {
	assert.Equal(t, "", RenderFields(nil))
}
