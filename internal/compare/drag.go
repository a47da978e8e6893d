package compare

// DragKind says what a drag session manipulates.
type DragKind int

const (
	DragResize DragKind = iota
	DragReorder
)

func (k DragKind) String() string {
	switch k {
	case DragResize:
		return "resize"
	case DragReorder:
		return "reorder"
	default:
		return "unknown"
	}
}

// DragSnapshot is the state captured when a drag starts.
type DragSnapshot struct {
	Size          RowSize
	RowPixelWidth float64
	Metric        string
}

// DragSession is a single in-progress pointer drag.
//
// A session is a plain value: it is created at drag start, advanced by
// Move or Retarget for every pointer event, and read back on release.
// Deltas are always measured from the start position, so replaying the
// same events yields the same result.
type DragSession struct {
	Kind          DragKind
	RowKey        RowKey
	PanelIndex    int
	StartSnapshot DragSnapshot
	Constraints   Constraints

	DX, DY float64
	// Current is the resize result for the latest move.
	Current RowSize
	// Target is the metric currently under the pointer of a reorder drag.
	Target string
}

// NewResizeSession starts resizing panel idx of the row identified by key.
func NewResizeSession(key RowKey, idx int, start RowSize, rowPixelWidth float64, c Constraints) DragSession {
	return DragSession{
		Kind:       DragResize,
		RowKey:     key,
		PanelIndex: idx,
		StartSnapshot: DragSnapshot{
			Size:          start.Clone(),
			RowPixelWidth: rowPixelWidth,
		},
		Constraints: c,
		Current:     start.Clone(),
	}
}

// NewReorderSession starts dragging metric, which sits at panel idx of row key.
func NewReorderSession(key RowKey, idx int, metric string) DragSession {
	return DragSession{
		Kind:          DragReorder,
		RowKey:        key,
		PanelIndex:    idx,
		StartSnapshot: DragSnapshot{Metric: metric},
		Target:        metric,
	}
}

// Move advances the session to a pointer offset (dx, dy) from the start.
func (d DragSession) Move(dx, dy float64) DragSession {
	d.DX, d.DY = dx, dy
	if d.Kind == DragResize {
		d.Current = d.Constraints.Resize(d.StartSnapshot.Size, d.PanelIndex, dx, dy, d.StartSnapshot.RowPixelWidth)
	}
	return d
}

// Retarget records the metric under the pointer of a reorder drag.
func (d DragSession) Retarget(metric string) DragSession {
	if d.Kind == DragReorder && metric != "" {
		d.Target = metric
	}
	return d
}

// Dragged returns the metric being moved by a reorder drag.
func (d DragSession) Dragged() string {
	return d.StartSnapshot.Metric
}
