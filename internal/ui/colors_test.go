package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

// keepProfile restores the global color profile after a test changes it.
func keepProfile(t *testing.T) {
	t.Helper()
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
}

func TestStylesAreFunctional(t *testing.T) {
	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Success", SuccessStyle()},
		{"Error", ErrorStyle()},
		{"Warning", WarningStyle()},
		{"Info", InfoStyle()},
		{"Muted", MutedStyle()},
	}

	for _, tt := range styles {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.style.Render("test text"), "test text")
		})
	}
}

func TestSetColorMode(t *testing.T) {
	tests := []struct {
		mode    string
		tty     bool
		colored bool
	}{
		{"always", false, true},
		{"always", true, true},
		{"never", true, false},
		{"auto", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			keepProfile(t)
			lipgloss.SetColorProfile(termenv.TrueColor)

			SetColorMode(tt.mode, tt.tty)
			rendered := ErrorStyle().Render("x")
			if tt.colored {
				assert.Contains(t, rendered, "\x1b[")
			} else {
				assert.Equal(t, "x", rendered)
			}
		})
	}
}

func TestSetColorMode_AutoKeepsTerminalProfile(t *testing.T) {
	keepProfile(t)
	lipgloss.SetColorProfile(termenv.TrueColor)

	SetColorMode("auto", true)
	assert.Equal(t, termenv.TrueColor, lipgloss.ColorProfile())
}
