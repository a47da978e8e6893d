package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

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
			Width(8)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Width(20)
)

// renderHelpOverlay renders a centered box with every key binding, one
// column per binding group, followed by the mouse gestures.
func (m Model) renderHelpOverlay() string {
	var columns []string
	for _, group := range m.keys.FullHelp() {
		var lines []string
		for _, b := range group {
			h := b.Help()
			lines = append(lines, helpKeyStyle.Render(h.Key)+helpDescStyle.Render(h.Desc))
		}
		columns = append(columns, strings.Join(lines, "\n"))
	}

	mouse := []string{
		helpKeyStyle.Render("hover") + helpDescStyle.Render("inspect values"),
		helpKeyStyle.Render("click") + helpDescStyle.Render("pin x"),
		helpKeyStyle.Render("title") + helpDescStyle.Render("drag to reorder"),
		helpKeyStyle.Render(GlyphHandle) + helpDescStyle.Render("drag to resize"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		helpTitleStyle.Render("Keyboard Shortcuts"),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		helpTitleStyle.Render("Mouse"),
		strings.Join(mouse, "\n"),
		"",
		LabelStyle.Render("Press ? to close"),
	)
	box := helpBoxStyle.Render(content)

	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg),
	)
}
