package compare

import (
	"sort"
	"strings"
)

// Action is a typed mutation of the comparison state. Every change goes
// through Store.Dispatch with one of the action types below.
type Action interface {
	isAction()
}

// SetRuns replaces the compared runs. Order matters to alignment.
type SetRuns struct {
	IDs    []string
	Labels map[string]string
}

// SetMetrics replaces the selected metric set.
type SetMetrics struct{ Metrics []string }

// SetXAxisKey selects the x-axis metric.
type SetXAxisKey struct{ Key string }

// CycleXAxisKey moves to the next discovered x-axis candidate.
type CycleXAxisKey struct{}

// SetColumns changes the number of panels per row.
type SetColumns struct{ Columns int }

// SeriesSettled delivers the result of one fetch cycle. Failed holds the
// runs whose fetch did not succeed in this cycle.
type SeriesSettled struct {
	Series Aggregate
	Failed map[string]error
}

// Hover moves the transient cursor.
type Hover struct{ X XValue }

// HoverClear removes the transient cursor.
type HoverClear struct{}

// Pin fixes the pinned cursor. An empty Color keeps the current one.
type Pin struct {
	X     XValue
	Color string
}

// Unpin clears the pinned cursor.
type Unpin struct{}

// PinPrev moves the pin to the previous x value.
type PinPrev struct{}

// PinNext moves the pin to the next x value.
type PinNext struct{}

// ReorderMetrics moves Dragged to the slot of Target.
type ReorderMetrics struct{ Dragged, Target string }

// DragStart opens a drag session on a panel.
type DragStart struct {
	Kind       DragKind
	RowKey     RowKey
	PanelIndex int
}

// DragMove advances the active session. DX and DY are offsets from the
// drag start; Target names the metric under the pointer for reorders.
type DragMove struct {
	DX, DY float64
	Target string
}

// DragEnd commits the active session.
type DragEnd struct{}

// SetViewport sets the pixel width available to a row.
type SetViewport struct{ Width float64 }

func (SetRuns) isAction()        {}
func (SetMetrics) isAction()     {}
func (SetXAxisKey) isAction()    {}
func (CycleXAxisKey) isAction()  {}
func (SetColumns) isAction()     {}
func (SeriesSettled) isAction()  {}
func (Hover) isAction()          {}
func (HoverClear) isAction()     {}
func (Pin) isAction()            {}
func (Unpin) isAction()          {}
func (PinPrev) isAction()        {}
func (PinNext) isAction()        {}
func (ReorderMetrics) isAction() {}
func (DragStart) isAction()      {}
func (DragMove) isAction()       {}
func (DragEnd) isAction()        {}
func (SetViewport) isAction()    {}

// Options configure a Store.
type Options struct {
	Columns       int
	DefaultHeight float64
	XAxisKey      string
	Gap           float64
	RowGap        float64
	Constraints   *Constraints
}

// State is the plain part of the comparison state.
type State struct {
	RunIDs        []string
	Labels        map[string]string
	Metrics       []string
	XAxisKey      string
	Order         []string
	Columns       int
	ViewportWidth float64
	Failed        map[string]string
}

type alignKey struct {
	runs    string
	version uint64
	metrics string
	xAxis   string
}

// Store owns the comparison state and its derived views.
//
// The store is not safe for concurrent use. It is meant to be driven from
// a single event loop, with fetch results delivered as SeriesSettled actions.
type Store struct {
	state       State
	guard       StaleDataGuard
	cursor      Cursor
	sizes       *RowSizes
	engine      Engine
	constraints Constraints
	drag        *DragSession

	memoKey alignKey
	memoOK  bool
	aligned []AlignedSeries
	xs      []XValue
	ranges  map[string]Range
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	xKey := opts.XAxisKey
	if xKey == "" {
		xKey = DefaultXAxisKey
	}
	c := DefaultConstraints()
	if opts.Constraints != nil {
		c = *opts.Constraints
	}
	columns := ClampColumns(opts.Columns)
	return &Store{
		state: State{
			XAxisKey: xKey,
			Columns:  columns,
			Labels:   map[string]string{},
			Failed:   map[string]string{},
		},
		sizes:       NewRowSizes(opts.DefaultHeight),
		engine:      Engine{Columns: columns, Gap: opts.Gap, RowGap: opts.RowGap},
		constraints: c,
	}
}

// Dispatch applies one action.
func (s *Store) Dispatch(a Action) {
	switch a := a.(type) {
	case SetRuns:
		s.state.RunIDs = append([]string(nil), a.IDs...)
		s.state.Labels = make(map[string]string, len(a.Labels))
		for k, v := range a.Labels {
			s.state.Labels[k] = v
		}
		for id := range s.state.Failed {
			if !contains(s.state.RunIDs, id) {
				delete(s.state.Failed, id)
			}
		}

	case SetMetrics:
		s.state.Metrics = append([]string(nil), a.Metrics...)
		s.state.Order = SyncOrder(s.state.Order, s.state.Metrics, s.state.XAxisKey)

	case SetXAxisKey:
		if a.Key == "" {
			return
		}
		s.state.XAxisKey = a.Key
		s.state.Order = SyncOrder(s.state.Order, s.state.Metrics, a.Key)

	case CycleXAxisKey:
		opts := s.XAxisOptions()
		next := opts[0]
		for i, k := range opts {
			if k == s.state.XAxisKey {
				next = opts[(i+1)%len(opts)]
				break
			}
		}
		s.Dispatch(SetXAxisKey{Key: next})
		return

	case SetColumns:
		s.state.Columns = ClampColumns(a.Columns)
		s.engine.Columns = s.state.Columns

	case SeriesSettled:
		s.settle(a)

	case Hover:
		s.cursor.Hover(a.X)

	case HoverClear:
		s.cursor.ClearHover()

	case Pin:
		s.cursor.PinWithColor(a.X, a.Color)

	case Unpin:
		s.cursor.Unpin()

	case PinPrev:
		s.cursor.Prev(s.XValues())

	case PinNext:
		s.cursor.Next(s.XValues())

	case ReorderMetrics:
		s.state.Order = Reorder(s.state.Order, a.Dragged, a.Target)

	case DragStart:
		s.startDrag(a)

	case DragMove:
		if s.drag == nil {
			return
		}
		d := s.drag.Move(a.DX, a.DY).Retarget(a.Target)
		s.drag = &d

	case DragEnd:
		s.endDrag()

	case SetViewport:
		if a.Width >= 0 {
			s.state.ViewportWidth = a.Width
		}
	}

	s.reflow()
}

// settle merges a fetch result. Runs that failed this cycle keep the
// series they had in the previous aggregate, so one broken run neither
// blanks the others nor loses its own last good data.
func (s *Store) settle(a SeriesSettled) {
	merged := make(Aggregate, len(a.Series)+len(a.Failed))
	for id, rs := range a.Series {
		merged[id] = rs
		delete(s.state.Failed, id)
	}
	prev := s.guard.Current()
	for id, err := range a.Failed {
		msg := "fetch failed"
		if err != nil {
			msg = err.Error()
		}
		s.state.Failed[id] = msg
		if rs, ok := prev[id]; ok {
			if _, fresh := merged[id]; !fresh {
				merged[id] = rs
			}
		}
	}
	s.guard.Offer(merged)
}

func (s *Store) startDrag(a DragStart) {
	if s.drag != nil {
		return
	}
	for _, row := range s.Layout() {
		if row.Key != a.RowKey || a.PanelIndex < 0 || a.PanelIndex >= len(row.Metrics) {
			continue
		}
		var d DragSession
		switch a.Kind {
		case DragResize:
			d = NewResizeSession(row.Key, a.PanelIndex, row.Size, s.state.ViewportWidth, s.constraints)
		case DragReorder:
			d = NewReorderSession(row.Key, a.PanelIndex, row.Metrics[a.PanelIndex])
		default:
			return
		}
		s.drag = &d
		return
	}
}

func (s *Store) endDrag() {
	if s.drag == nil {
		return
	}
	d := *s.drag
	s.drag = nil
	switch d.Kind {
	case DragResize:
		s.sizes.Set(d.RowKey, d.Current)
	case DragReorder:
		s.state.Order = Reorder(s.state.Order, d.Dragged(), d.Target)
	}
}

// reflow lays the grid out again and evicts sizes of rows that no longer exist.
func (s *Store) reflow() {
	if s.drag != nil {
		return
	}
	s.sizes.Prune(ActiveKeys(s.Layout()))
}

// State returns a copy of the plain state.
func (s *Store) State() State {
	st := s.state
	st.RunIDs = append([]string(nil), s.state.RunIDs...)
	st.Metrics = append([]string(nil), s.state.Metrics...)
	st.Order = append([]string(nil), s.state.Order...)
	st.Labels = make(map[string]string, len(s.state.Labels))
	for k, v := range s.state.Labels {
		st.Labels[k] = v
	}
	st.Failed = make(map[string]string, len(s.state.Failed))
	for k, v := range s.state.Failed {
		st.Failed[k] = v
	}
	return st
}

// Label returns the display label of a run, falling back to its id.
func (s *Store) Label(run string) string {
	if l := s.state.Labels[run]; l != "" {
		return l
	}
	return run
}

// Loading reports whether no data has ever been received.
func (s *Store) Loading() bool {
	return s.guard.Loading()
}

// Cursor returns a copy of the cursor state.
func (s *Store) Cursor() Cursor {
	return s.cursor
}

// Drag returns the active drag session.
func (s *Store) Drag() (DragSession, bool) {
	if s.drag == nil {
		return DragSession{}, false
	}
	return *s.drag, true
}

// FailedRuns returns the ids of runs whose last fetch failed, sorted.
func (s *Store) FailedRuns() []string {
	ids := make([]string, 0, len(s.state.Failed))
	for id := range s.state.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// XAxisOptions lists x-axis candidates discovered in the held data.
func (s *Store) XAxisOptions() []string {
	return XAxisOptions(s.guard.Current())
}

// Aligned returns the aligned series for the display order, recomputed only
// when runs, data, metrics or the x-axis key changed.
func (s *Store) Aligned() []AlignedSeries {
	key := alignKey{
		runs:    strings.Join(s.state.RunIDs, "\x00"),
		version: s.guard.Version(),
		metrics: strings.Join(s.state.Order, "\x00"),
		xAxis:   s.state.XAxisKey,
	}
	if s.memoOK && key == s.memoKey {
		return s.aligned
	}
	s.aligned = Align(s.state.RunIDs, s.guard.Current(), s.state.Order, s.state.XAxisKey)
	s.xs = DistinctX(s.aligned)
	s.ranges = Ranges(s.aligned)
	s.memoKey = key
	s.memoOK = true
	return s.aligned
}

// XValues returns the sorted distinct x values used for pin navigation.
func (s *Store) XValues() []XValue {
	s.Aligned()
	return s.xs
}

// Ranges returns the value range of each aligned metric.
func (s *Store) Ranges() map[string]Range {
	s.Aligned()
	return s.ranges
}

// Series returns the aligned series of one metric.
func (s *Store) Series(metric string) (AlignedSeries, bool) {
	for _, a := range s.Aligned() {
		if a.Metric == metric {
			return a, true
		}
	}
	return AlignedSeries{}, false
}

// Displayed returns the metrics that get a panel: the display order minus
// the x-axis key and minus metrics without aligned points.
func (s *Store) Displayed() []string {
	var out []string
	for _, a := range s.Aligned() {
		if len(a.Points) > 0 {
			out = append(out, a.Metric)
		}
	}
	return out
}

// Layout returns the current rows. During a resize drag the dragged row
// shows the session's in-progress size.
func (s *Store) Layout() []Row {
	var override func(RowKey) (RowSize, bool)
	if s.drag != nil && s.drag.Kind == DragResize {
		d := *s.drag
		override = func(k RowKey) (RowSize, bool) {
			if k == d.RowKey {
				return d.Current, true
			}
			return RowSize{}, false
		}
	}
	return s.engine.Layout(s.Displayed(), s.sizes, s.state.ViewportWidth, override)
}

// RowSize returns the stored size of a row, if any.
func (s *Store) RowSize(key RowKey) (RowSize, bool) {
	return s.sizes.Lookup(key)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
