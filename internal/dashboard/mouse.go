package dashboard

import (
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MandiZhao/lowvr/internal/compare"
)

// One terminal cell covers cellWidth x cellHeight layout pixels.
const (
	cellWidth  = 8
	cellHeight = 16
)

const (
	headerHeight = 3
	footerHeight = 1
	// yLabelWidth is the gutter left of a plot holding the y tick labels.
	yLabelWidth = 8
	scrollStep  = 3
)

// zone is the part of a panel under the pointer.
type zone int

const (
	zoneBody zone = iota
	zoneTitle
	zonePlot
	zoneHandle
)

// pressState remembers where the active drag started, in screen cells.
type pressState struct {
	x, y int
}

// hit is the result of mapping a screen cell onto the grid.
type hit struct {
	row    compare.Row
	index  int
	metric string
	zone   zone
	// plotCol is the column within the plot area, valid for zonePlot.
	plotCol int
}

func toCols(px float64) int { return int(math.Round(px / cellWidth)) }
func toRows(px float64) int { return int(math.Round(px / cellHeight)) }

// rect is a panel's placement in grid cells.
type rect struct {
	x, y, w, h int
}

// cellRect converts a panel's layout pixels to grid cells. Rendering and
// hit-testing both go through here so they always agree.
func cellRect(row compare.Row, p compare.Panel) rect {
	x0, x1 := toCols(p.X), toCols(p.X+p.Width)
	y0, y1 := toRows(row.Y), toRows(row.Y+row.Size.Height)
	return rect{x: x0, y: y0, w: x1 - x0, h: y1 - y0}
}

// geometry splits a panel of w x h cells (border included) into its parts:
// a title line, a readout line, the plot and an x-axis line.
type geometry struct {
	gutter         int
	plotW, plotH   int
	innerW, innerH int
}

func panelGeometry(w, h int) geometry {
	g := geometry{innerW: max(w-2, 0), innerH: max(h-2, 0)}
	if g.innerW >= yLabelWidth+12 {
		g.gutter = yLabelWidth
	}
	g.plotW = max(g.innerW-g.gutter, 0)
	g.plotH = max(g.innerH-3, 0)
	return g
}

// hitTest maps a screen cell to the panel under it.
func (m Model) hitTest(x, y int) (hit, bool) {
	if y < headerHeight || y >= headerHeight+m.bodyHeight() {
		return hit{}, false
	}
	gy := y - headerHeight + m.scroll
	for _, row := range m.store.Layout() {
		for i, p := range row.Panels {
			r := cellRect(row, p)
			if x < r.x || x >= r.x+r.w || gy < r.y || gy >= r.y+r.h {
				continue
			}
			h := hit{row: row, index: i, metric: p.Metric}
			lx, ly := x-r.x, gy-r.y
			g := panelGeometry(r.w, r.h)
			switch {
			case lx >= r.w-3 && ly >= r.h-2:
				h.zone = zoneHandle
			case ly <= 1:
				h.zone = zoneTitle
			case ly >= 3 && ly < 3+g.plotH && lx >= 1+g.gutter && lx < 1+g.gutter+g.plotW:
				h.zone = zonePlot
				h.plotCol = lx - 1 - g.gutter
			default:
				h.zone = zoneBody
			}
			return h, true
		}
	}
	return hit{}, false
}

// xAt returns the x value under a plot column of metric's panel.
func (m Model) xAt(h hit) (compare.XValue, bool) {
	series, ok := m.store.Series(h.metric)
	if !ok || len(series.Points) == 0 {
		return compare.XValue{}, false
	}
	r := cellRect(h.row, h.row.Panels[h.index])
	plot := Plot{Width: panelGeometry(r.w, r.h).plotW, Points: len(series.Points)}
	return series.Points[plot.IndexAt(h.plotCol)].X, true
}

// HandleMouseMsg routes pointer events: hover and click-to-pin over plots,
// resize drags from the bottom-right handle, reorder drags from the title.
func (m *Model) HandleMouseMsg(msg tea.MouseMsg) {
	if m.showHelp {
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll -= scrollStep
			m.clampScroll()
		case tea.MouseButtonWheelDown:
			m.scroll += scrollStep
			m.clampScroll()
		case tea.MouseButtonLeft:
			m.pressAt(msg.X, msg.Y)
		}

	case tea.MouseActionMotion:
		m.motionAt(msg.X, msg.Y)

	case tea.MouseActionRelease:
		m.releaseAt(msg.X, msg.Y)
	}
}

func (m *Model) pressAt(x, y int) {
	h, ok := m.hitTest(x, y)
	if !ok {
		return
	}
	m.selected = h.metric

	switch h.zone {
	case zoneHandle:
		m.store.Dispatch(compare.DragStart{Kind: compare.DragResize, RowKey: h.row.Key, PanelIndex: h.index})
	case zoneTitle:
		m.store.Dispatch(compare.DragStart{Kind: compare.DragReorder, RowKey: h.row.Key, PanelIndex: h.index})
	case zonePlot:
		if xv, ok := m.xAt(h); ok {
			m.store.Dispatch(compare.Pin{X: xv})
		}
		return
	default:
		return
	}
	if _, ok := m.store.Drag(); ok {
		m.press = &pressState{x: x, y: y}
	}
}

func (m *Model) motionAt(x, y int) {
	if d, ok := m.store.Drag(); ok && m.press != nil {
		m.store.Dispatch(compare.DragMove{
			DX:     float64((x - m.press.x) * cellWidth),
			DY:     float64((y - m.press.y) * cellHeight),
			Target: m.targetAt(x, y, d),
		})
		return
	}

	h, ok := m.hitTest(x, y)
	if !ok || h.zone != zonePlot {
		m.store.Dispatch(compare.HoverClear{})
		return
	}
	if xv, ok := m.xAt(h); ok {
		m.store.Dispatch(compare.Hover{X: xv})
	}
}

func (m *Model) releaseAt(x, y int) {
	d, ok := m.store.Drag()
	if !ok {
		m.press = nil
		return
	}
	if m.press != nil {
		target := m.targetAt(x, y, d)
		if target == "" {
			// Dropped outside every panel: leave the order alone.
			target = d.Dragged()
		}
		m.store.Dispatch(compare.DragMove{
			DX:     float64((x - m.press.x) * cellWidth),
			DY:     float64((y - m.press.y) * cellHeight),
			Target: target,
		})
	}
	m.store.Dispatch(compare.DragEnd{})
	m.press = nil
	m.clampScroll()
}

// targetAt names the metric under the pointer during a reorder drag.
func (m Model) targetAt(x, y int, d compare.DragSession) string {
	if d.Kind != compare.DragReorder {
		return ""
	}
	if h, ok := m.hitTest(x, y); ok {
		return h.metric
	}
	return ""
}
