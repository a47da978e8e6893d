package dashboard

import "github.com/charmbracelet/lipgloss"

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

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")

	// ColorHover marks the hovered x column.
	ColorHover = lipgloss.Color("#6B6B8D")
)

// RunColors assigns one color per run, in run order, wrapping around.
var RunColors = []lipgloss.Color{
	lipgloss.Color("#00FFFF"), // cyan
	lipgloss.Color("#FFAA00"), // amber
	lipgloss.Color("#39FF14"), // green
	lipgloss.Color("#BF40FF"), // purple
	lipgloss.Color("#FF5F5F"), // coral
	lipgloss.Color("#5F87FF"), // blue
	lipgloss.Color("#FFFF5F"), // yellow
	lipgloss.Color("#FF87D7"), // pink
}

// RunColor returns the color of the run at position i.
func RunColor(i int) lipgloss.Color {
	if i < 0 {
		i = -i
	}
	return RunColors[i%len(RunColors)]
}

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	// Panel border is drawn by the style; width and height are set per panel.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	PanelSelectedStyle = PanelStyle.
				BorderForeground(ColorAccent)

	PanelDraggingStyle = PanelStyle.
				BorderForeground(ColorWarning)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	HandleStyle = lipgloss.NewStyle().
			Foreground(ColorAccentDim)
)

// Glyphs
const (
	GlyphHandle = "◢"
	GlyphPin    = "◆"
	GlyphMarker = "│"
	GlyphFailed = "✗"
	GlyphLegend = "━━"
)
