package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MandiZhao/lowvr/internal/compare"
)

// renderDashboard renders the complete dashboard view: a three-line header,
// the scrolled panel grid and a one-line footer.
func (m Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title, legend and status lines.
func (m Model) renderHeader() string {
	st := m.store.State()

	updated := "loading"
	if !m.lastUpdate.IsZero() {
		switch s := m.SecondsSinceUpdate(); s {
		case 0:
			updated = "just now"
		default:
			updated = fmt.Sprintf("%ds ago", s)
		}
	}

	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("lowvr compare")
	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %d runs | x: %s | cols %d | updated %s",
			len(st.RunIDs), st.XAxisKey, st.Columns, updated))
	top := title + stats
	if m.fetching {
		top += " " + m.spinner.View()
	}

	lines := []string{
		HeaderStyle.Render(top),
		m.renderLegend(st),
		m.renderStatus(),
	}
	for i, l := range lines {
		lines[i] = m.clip(l)
	}
	return strings.Join(lines, "\n")
}

// renderLegend lists every run in its color; failed runs are marked.
func (m Model) renderLegend(st compare.State) string {
	parts := make([]string, 0, len(st.RunIDs))
	for i, id := range st.RunIDs {
		label := m.store.Label(id)
		if _, failed := st.Failed[id]; failed {
			parts = append(parts, ErrorStyle.Render(GlyphFailed+" "+label))
			continue
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(RunColor(i)).Render(GlyphLegend)+" "+LabelStyle.Render(label))
	}
	return " " + strings.Join(parts, "  ")
}

// renderStatus shows the pin and any failed runs.
func (m Model) renderStatus() string {
	var parts []string

	cur := m.store.Cursor()
	if x, ok := cur.Pinned(); ok {
		pin := lipgloss.NewStyle().Foreground(lipgloss.Color(cur.PinnedColor())).Render(GlyphPin) +
			LabelStyle.Render(" pinned x="+FormatX(x))
		if cur.Stale(m.store.XValues()) {
			pin += MutedStyle.Render(" (not in current data)")
		}
		parts = append(parts, pin)
	}

	if failed := m.store.FailedRuns(); len(failed) > 0 {
		labels := make([]string, len(failed))
		for i, id := range failed {
			labels[i] = m.store.Label(id)
		}
		parts = append(parts, ErrorStyle.Render("failed: "+strings.Join(labels, ", ")))
	} else if m.lastErr != "" {
		parts = append(parts, ErrorStyle.Render(firstLine(m.lastErr)))
	}

	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, MutedStyle.Render(" | "))
}

// renderBody renders the visible window of the grid, padded to the body height.
func (m Model) renderBody() string {
	height := m.bodyHeight()

	var lines []string
	switch {
	case m.store.Loading():
		lines = m.placeholder(m.spinner.View() + " " + LabelStyle.Render(fmt.Sprintf("Loading %d runs...", len(m.runIDs))))
	case len(m.store.Displayed()) == 0:
		lines = m.placeholder(MutedStyle.Render("No metrics to chart"))
	default:
		lines = m.renderGrid()
		end := m.scroll + height
		if end > len(lines) {
			end = len(lines)
		}
		if m.scroll < end {
			lines = lines[m.scroll:end]
		} else {
			lines = nil
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

func (m Model) placeholder(text string) []string {
	if m.width <= 0 {
		return []string{text}
	}
	placed := lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, text)
	return strings.Split(placed, "\n")
}

// renderGrid renders every row of panels, one string per grid line.
func (m Model) renderGrid() []string {
	var out []string
	for _, row := range m.store.Layout() {
		blocks := make([]string, 0, 2*len(row.Panels))
		col := 0
		height := 0
		for _, p := range row.Panels {
			r := cellRect(row, p)
			if r.x > col {
				blocks = append(blocks, spacer(r.x-col, r.h))
			}
			blocks = append(blocks, m.renderPanel(p.Metric, r.w, r.h))
			col = r.x + r.w
			height = r.h
		}
		if height == 0 {
			continue
		}
		joined := lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
		out = append(out, strings.Split(joined, "\n")...)
	}
	return out
}

// renderPanel renders one metric as a bordered w x h block.
func (m Model) renderPanel(metric string, w, h int) string {
	if w < 4 || h < 4 {
		return spacer(w, h)
	}
	g := panelGeometry(w, h)
	series, _ := m.store.Series(metric)
	lo, hi := ValueRange(m.store.Ranges()[metric])

	cur := m.store.Cursor()
	var markers []Marker
	var readoutX compare.XValue
	hasReadout := false
	if x, ok := cur.Hovered(); ok {
		if i := compare.IndexOfX(series, x); i >= 0 {
			markers = append(markers, Marker{Index: i, Color: ColorHover})
		}
		readoutX, hasReadout = x, true
	}
	if x, ok := cur.Pinned(); ok {
		if i := compare.IndexOfX(series, x); i >= 0 {
			markers = append(markers, Marker{Index: i, Color: lipgloss.Color(cur.PinnedColor())})
		}
		if !hasReadout {
			readoutX, hasReadout = x, true
		}
	}

	plotLines := make([]Line, len(series.RunIDs))
	for i, id := range series.RunIDs {
		plotLines[i] = Line{Color: RunColor(i), Values: series.Column(id)}
	}

	plot := Plot{Width: g.plotW, Height: g.plotH, Points: len(series.Points), Min: lo, Max: hi}
	rendered := plot.Render(plotLines, markers)

	content := make([]string, 0, g.innerH)
	content = append(content, padRight(TitleStyle.Render(truncate(metric, g.innerW)), g.innerW))
	if hasReadout {
		content = append(content, m.renderReadout(series, readoutX, cur.ShowPinLabel(), g.innerW))
	} else {
		content = append(content, padRight(MutedStyle.Render(truncate("hover to inspect", g.innerW)), g.innerW))
	}
	for i, line := range rendered {
		label := ""
		switch i {
		case 0:
			label = FormatTick(hi)
		case len(rendered) - 1:
			label = FormatTick(lo)
		}
		content = append(content, yLabel(label, g.gutter)+line)
	}
	content = append(content, m.renderXAxis(series, g))

	style := PanelStyle
	switch m.panelState(metric) {
	case panelDragging:
		style = PanelDraggingStyle
	case panelSelected:
		style = PanelSelectedStyle
	}
	return style.Width(g.innerW).Height(g.innerH).MaxHeight(h).Render(strings.Join(content, "\n"))
}

// renderReadout shows x and every run's value at x.
func (m Model) renderReadout(series compare.AlignedSeries, x compare.XValue, pinLabel bool, width int) string {
	head := "x=" + FormatX(x)
	if pinLabel {
		head = GlyphPin + " " + head
	}
	out := LabelStyle.Render(truncate(head, width))

	idx := compare.IndexOfX(series, x)
	for i, id := range series.RunIDs {
		v := "-"
		if s := series.Value(idx, id); s.Valid {
			v = FormatTick(s.V)
		}
		seg := " " + lipgloss.NewStyle().Foreground(RunColor(i)).Render(v)
		if lipgloss.Width(out)+lipgloss.Width(seg) > width {
			break
		}
		out += seg
	}
	return padRight(out, width)
}

// renderXAxis labels the first and last x values and draws the resize handle.
func (m Model) renderXAxis(series compare.AlignedSeries, g geometry) string {
	avail := g.innerW - 1
	axis := ""
	if n := len(series.Points); n > 0 && g.plotW > 0 {
		first := FormatX(series.Points[0].X)
		last := FormatX(series.Points[n-1].X)
		// one blank cell before the handle
		span := g.plotW - 2
		fw, lw := len([]rune(first)), len([]rune(last))
		if n == 1 || fw+lw+1 > span {
			axis = truncate(first, span)
		} else {
			axis = first + strings.Repeat(" ", span-fw-lw) + last
		}
	}
	text := strings.Repeat(" ", g.gutter) + axis
	return padRight(MutedStyle.Render(truncate(text, avail)), avail) + HandleStyle.Render(GlyphHandle)
}

type panelState int

const (
	panelNormal panelState = iota
	panelSelected
	panelDragging
)

func (m Model) panelState(metric string) panelState {
	if d, ok := m.store.Drag(); ok {
		switch d.Kind {
		case compare.DragReorder:
			if metric == d.Dragged() {
				return panelDragging
			}
			if metric == d.Target {
				return panelSelected
			}
			return panelNormal
		case compare.DragResize:
			if row, idx, ok := m.rowOf(metric); ok && row.Key == d.RowKey && idx == d.PanelIndex {
				return panelDragging
			}
		}
	}
	if metric == m.selected {
		return panelSelected
	}
	return panelNormal
}

// renderFooter renders the keyboard hints.
func (m Model) renderFooter() string {
	return m.clip(FooterStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
}

func (m Model) clip(s string) string {
	if m.width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(s)
}

func yLabel(label string, width int) string {
	if width <= 0 {
		return ""
	}
	label = truncate(label, width-1)
	return MutedStyle.Render(strings.Repeat(" ", width-1-len([]rune(label))) + label + " ")
}

func spacer(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	line := strings.Repeat(" ", w)
	lines := make([]string, h)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// truncate shortens plain text to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
