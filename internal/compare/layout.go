package compare

import (
	"math"
	"strings"
)

// Layout limits. Sizes are in layout pixels.
const (
	MinColumns       = 1
	MaxColumns       = 6
	MinRowHeight     = 120.0
	MaxRowHeight     = 600.0
	DefaultRowHeight = 240.0
	MinSingleWidth   = 220.0
	MinWeight        = 0.5
)

// RowKey identifies a row by the ordered metric names it holds.
type RowKey string

// rowKeySep can't occur in a metric name, so distinct rows never share a key.
const rowKeySep = "\x00"

// KeyFor derives the RowKey of a row. Order matters: the same metrics in a
// different order form a different row.
func KeyFor(metrics []string) RowKey {
	return RowKey(strings.Join(metrics, rowKeySep))
}

// RowSize is the stored sizing of one row.
type RowSize struct {
	Height float64
	// Widths are relative weights, one per panel.
	Widths []float64
	// SingleWidth is an absolute width override for one-panel rows; zero means unset.
	SingleWidth float64
}

// Clone returns a deep copy.
func (s RowSize) Clone() RowSize {
	c := s
	c.Widths = append([]float64(nil), s.Widths...)
	return c
}

// TotalWeight sums the width weights.
func (s RowSize) TotalWeight() float64 {
	total := 0.0
	for _, w := range s.Widths {
		total += w
	}
	return total
}

// DefaultRowSize synthesizes the size of a fresh n-panel row.
func DefaultRowSize(n int, height float64) RowSize {
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = 1
	}
	return RowSize{Height: height, Widths: widths}
}

// RowSizes stores per-row sizing keyed by RowKey.
//
// Entries are created lazily with default values. An entry whose weight
// count no longer matches its row is replaced by defaults, and Prune drops
// entries for rows that are no longer laid out. Customization of a row is
// lost whenever its composition changes.
type RowSizes struct {
	defaultHeight float64
	sizes         map[RowKey]RowSize
}

// NewRowSizes creates an empty store. A non-positive height selects DefaultRowHeight.
func NewRowSizes(defaultHeight float64) *RowSizes {
	if defaultHeight <= 0 {
		defaultHeight = DefaultRowHeight
	}
	return &RowSizes{
		defaultHeight: clamp(defaultHeight, MinRowHeight, MaxRowHeight),
		sizes:         make(map[RowKey]RowSize),
	}
}

// Get returns the size of a row with n panels, synthesizing it if missing or stale.
func (r *RowSizes) Get(key RowKey, n int) RowSize {
	s, ok := r.sizes[key]
	if !ok || len(s.Widths) != n {
		s = DefaultRowSize(n, r.defaultHeight)
		r.sizes[key] = s
	}
	return s.Clone()
}

// Lookup returns the stored size without synthesizing.
func (r *RowSizes) Lookup(key RowKey) (RowSize, bool) {
	s, ok := r.sizes[key]
	if !ok {
		return RowSize{}, false
	}
	return s.Clone(), true
}

// Set stores a size.
func (r *RowSizes) Set(key RowKey, s RowSize) {
	r.sizes[key] = s.Clone()
}

// Prune removes every entry whose key is not in active and returns how many were dropped.
func (r *RowSizes) Prune(active map[RowKey]bool) int {
	dropped := 0
	for key := range r.sizes {
		if !active[key] {
			delete(r.sizes, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of stored rows.
func (r *RowSizes) Len() int {
	return len(r.sizes)
}

// DefaultHeight returns the height used for new rows.
func (r *RowSizes) DefaultHeight() float64 {
	return r.defaultHeight
}

// Partition chunks metrics into rows of columns entries, keeping order.
func Partition(metrics []string, columns int) [][]string {
	columns = ClampColumns(columns)
	var rows [][]string
	for start := 0; start < len(metrics); start += columns {
		end := start + columns
		if end > len(metrics) {
			end = len(metrics)
		}
		row := make([]string, end-start)
		copy(row, metrics[start:end])
		rows = append(rows, row)
	}
	return rows
}

// ClampColumns bounds a column count to the supported range.
func ClampColumns(columns int) int {
	if columns < MinColumns {
		return MinColumns
	}
	if columns > MaxColumns {
		return MaxColumns
	}
	return columns
}

// Constraints bound a resize.
type Constraints struct {
	MinHeight      float64
	MaxHeight      float64
	MinSingleWidth float64
	MinWeight      float64
}

// DefaultConstraints returns the standard resize limits.
func DefaultConstraints() Constraints {
	return Constraints{
		MinHeight:      MinRowHeight,
		MaxHeight:      MaxRowHeight,
		MinSingleWidth: MinSingleWidth,
		MinWeight:      MinWeight,
	}
}

// ResizeHeight applies a vertical pointer delta to a row height.
func (c Constraints) ResizeHeight(start, dy float64) float64 {
	return clamp(start+dy, c.MinHeight, c.MaxHeight)
}

// ResizeSingle applies a horizontal delta to a one-panel row width.
func (c Constraints) ResizeSingle(startWidth, dx, rowPixelWidth float64) float64 {
	upper := math.Max(rowPixelWidth, c.MinSingleWidth)
	return clamp(startWidth+dx, c.MinSingleWidth, upper)
}

// Redistribute moves weight to or from panel idx according to a horizontal
// pixel delta, scaling the other panels so the total weight is unchanged.
func (c Constraints) Redistribute(start []float64, idx int, dx, rowPixelWidth float64) []float64 {
	n := len(start)
	out := append([]float64(nil), start...)
	if n < 2 || idx < 0 || idx >= n || rowPixelWidth <= 0 {
		return out
	}

	total := 0.0
	for _, w := range start {
		total += w
	}

	delta := dx / rowPixelWidth * total
	maxWeight := total - c.MinWeight*float64(n-1)
	next := clamp(start[idx]+delta, c.MinWeight, maxWeight)

	remainingStart := total - start[idx]
	remainingNext := total - next

	out[idx] = next
	for i := range out {
		if i == idx {
			continue
		}
		if remainingStart <= 0 {
			out[i] = remainingNext / float64(n-1)
		} else {
			out[i] = start[i] * remainingNext / remainingStart
		}
	}
	return out
}

// Resize computes the new size of a row when panel idx is dragged by (dx, dy).
func (c Constraints) Resize(start RowSize, idx int, dx, dy, rowPixelWidth float64) RowSize {
	next := start.Clone()
	next.Height = c.ResizeHeight(start.Height, dy)

	switch n := len(start.Widths); {
	case n == 1:
		width := start.SingleWidth
		if width <= 0 {
			width = rowPixelWidth
		}
		next.SingleWidth = c.ResizeSingle(width, dx, rowPixelWidth)
	case n > 1:
		next.Widths = c.Redistribute(start.Widths, idx, dx, rowPixelWidth)
	}
	return next
}

// Panel is the horizontal placement of one metric within a row.
type Panel struct {
	Metric string
	Index  int
	X      float64
	Width  float64
}

// Row is one laid out row.
type Row struct {
	Key     RowKey
	Metrics []string
	Size    RowSize
	Y       float64
	Panels  []Panel
}

// Contains reports whether y falls inside the row band.
func (r Row) Contains(y float64) bool {
	return y >= r.Y && y < r.Y+r.Size.Height
}

// PanelAt returns the index of the panel under x, or -1.
func (r Row) PanelAt(x float64) int {
	for i, p := range r.Panels {
		if x >= p.X && x < p.X+p.Width {
			return i
		}
	}
	return -1
}

// Engine lays out rows of panels.
type Engine struct {
	Columns int
	// Gap separates panels horizontally, RowGap separates rows.
	Gap    float64
	RowGap float64
}

// PanelWidths converts weights to pixel widths for a row of the given width.
func (e Engine) PanelWidths(size RowSize, rowWidth float64) []float64 {
	n := len(size.Widths)
	if n == 0 {
		return nil
	}
	if n == 1 {
		w := rowWidth
		if size.SingleWidth > 0 {
			w = math.Min(size.SingleWidth, rowWidth)
		}
		return []float64{math.Max(w, 0)}
	}

	avail := math.Max(rowWidth-e.Gap*float64(n-1), 0)
	total := size.TotalWeight()
	out := make([]float64, n)
	for i, w := range size.Widths {
		if total > 0 {
			out[i] = w / total * avail
		} else {
			out[i] = avail / float64(n)
		}
	}
	return out
}

// Layout partitions metrics into rows and places every panel. The override
// function, when non-nil, can supply a size for a row in place of the
// stored one; the store uses it to preview an active drag.
func (e Engine) Layout(metrics []string, sizes *RowSizes, rowWidth float64, override func(RowKey) (RowSize, bool)) []Row {
	var rows []Row
	y := 0.0
	for _, names := range Partition(metrics, e.Columns) {
		key := KeyFor(names)
		size := sizes.Get(key, len(names))
		if override != nil {
			if s, ok := override(key); ok && len(s.Widths) == len(names) {
				size = s
			}
		}

		widths := e.PanelWidths(size, rowWidth)
		panels := make([]Panel, len(names))
		x := 0.0
		for i, name := range names {
			panels[i] = Panel{Metric: name, Index: i, X: x, Width: widths[i]}
			x += widths[i] + e.Gap
		}

		rows = append(rows, Row{Key: key, Metrics: names, Size: size, Y: y, Panels: panels})
		y += size.Height + e.RowGap
	}
	return rows
}

// ActiveKeys returns the set of keys present in rows.
func ActiveKeys(rows []Row) map[RowKey]bool {
	keys := make(map[RowKey]bool, len(rows))
	for _, r := range rows {
		keys[r.Key] = true
	}
	return keys
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
