package dashboard

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/MandiZhao/lowvr/internal/compare"
)

// Braille patterns use a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// Unicode braille starts at U+2800 (empty); each dot is one bit.
const brailleBase = '⠀'

// brailleDots maps [row][col] within a character to its bit offset.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// Line is one run's samples in a plot, one per x position.
type Line struct {
	Color  lipgloss.Color
	Values []compare.Sample
}

// Marker highlights the cell column of one x position.
type Marker struct {
	Index int
	Color lipgloss.Color
}

// Plot maps aligned points onto a grid of braille cells. Points are spread
// evenly across the width by index; values are scaled between Min and Max.
type Plot struct {
	Width, Height int
	Points        int
	Min, Max      float64
}

func (p Plot) dotsW() int { return p.Width * 2 }
func (p Plot) dotsH() int { return p.Height * 4 }

// DotX is the horizontal dot position of point i.
func (p Plot) DotX(i int) int {
	if p.Points <= 1 || p.Width <= 0 {
		return 0
	}
	return int(math.Round(float64(i) * float64(p.dotsW()-1) / float64(p.Points-1)))
}

// Column is the cell column of point i.
func (p Plot) Column(i int) int {
	return p.DotX(i) / 2
}

// IndexAt returns the point nearest to cell column col.
func (p Plot) IndexAt(col int) int {
	if p.Points <= 1 || p.Width <= 0 {
		return 0
	}
	center := float64(col*2) + 0.5
	i := int(math.Round(center * float64(p.Points-1) / float64(p.dotsW()-1)))
	if i < 0 {
		return 0
	}
	if i >= p.Points {
		return p.Points - 1
	}
	return i
}

func (p Plot) dotY(v float64) int {
	norm := 0.5
	if p.Max > p.Min {
		norm = (v - p.Min) / (p.Max - p.Min)
	}
	y := int(math.Round((1 - norm) * float64(p.dotsH()-1)))
	if y < 0 {
		return 0
	}
	if y >= p.dotsH() {
		return p.dotsH() - 1
	}
	return y
}

type plotGrid struct {
	bits  [][]rune
	owner [][]int
}

func newPlotGrid(w, h int) *plotGrid {
	g := &plotGrid{bits: make([][]rune, h), owner: make([][]int, h)}
	for r := 0; r < h; r++ {
		g.bits[r] = make([]rune, w)
		g.owner[r] = make([]int, w)
		for c := range g.owner[r] {
			g.owner[r][c] = -1
		}
	}
	return g
}

func (g *plotGrid) set(x, y, line int) {
	row, col := y/4, x/2
	if row < 0 || row >= len(g.bits) || col < 0 || col >= len(g.bits[row]) {
		return
	}
	g.bits[row][col] |= 1 << brailleDots[y%4][x%2]
	g.owner[row][col] = line
}

// segment draws a straight dot line between two points (Bresenham).
func (g *plotGrid) segment(x0, y0, x1, y1, line int) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		g.set(x0, y0, line)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Render draws every line and marker and returns Height rows of Width cells.
// Null samples leave gaps: consecutive defined samples are joined, an
// isolated defined sample becomes a single dot. Markers fill empty cells of
// their column; later markers win.
func (p Plot) Render(lines []Line, markers []Marker) []string {
	if p.Width <= 0 || p.Height <= 0 {
		return nil
	}
	g := newPlotGrid(p.Width, p.Height)

	for li, l := range lines {
		for i := 0; i < len(l.Values) && i < p.Points; i++ {
			v := l.Values[i]
			if !v.Valid {
				continue
			}
			x, y := p.DotX(i), p.dotY(v.V)
			next := i + 1
			if next < len(l.Values) && next < p.Points && l.Values[next].Valid {
				g.segment(x, y, p.DotX(next), p.dotY(l.Values[next].V), li)
				continue
			}
			prevValid := i > 0 && l.Values[i-1].Valid
			if !prevValid {
				g.set(x, y, li)
			}
		}
	}

	markerCol := make(map[int]lipgloss.Color, len(markers))
	for _, m := range markers {
		if m.Index < 0 || m.Index >= p.Points {
			continue
		}
		markerCol[p.Column(m.Index)] = m.Color
	}

	out := make([]string, p.Height)
	for r := 0; r < p.Height; r++ {
		var b strings.Builder
		var run strings.Builder
		var runColor lipgloss.Color
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(runColor).Render(run.String()))
			}
			run.Reset()
		}

		for c := 0; c < p.Width; c++ {
			var ch string
			var color lipgloss.Color
			switch {
			case g.bits[r][c] != 0:
				ch = string(brailleBase + g.bits[r][c])
				color = lines[g.owner[r][c]].Color
			case markerCol[c] != "":
				ch = GlyphMarker
				color = markerCol[c]
			default:
				ch = " "
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run.WriteString(ch)
		}
		flush()
		out[r] = b.String()
	}
	return out
}

// ValueRange returns the y range for a metric, widening a flat range so the
// line sits mid-plot.
func ValueRange(r compare.Range) (lo, hi float64) {
	if !r.Valid {
		return 0, 1
	}
	lo, hi = r.Min, r.Max
	if hi == lo {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

// FormatTick renders an axis or readout value compactly: large magnitudes
// get SI prefixes, the rest keep at most three decimals.
func FormatTick(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if math.Abs(v) >= 1e4 {
		return strings.ReplaceAll(humanize.SIWithDigits(v, 1, ""), " ", "")
	}
	// FtoaWithDigits truncates, so round first
	r := math.Round(v*1e3) / 1e3
	if r == 0 {
		r = 0 // no "-0"
	}
	return humanize.FtoaWithDigits(r, 3)
}

// FormatX renders an x value for labels.
func FormatX(x compare.XValue) string {
	if x.IsText {
		return x.Text
	}
	return FormatTick(x.Num)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
