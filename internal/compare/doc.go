// Package compare implements the state behind the multi-run comparison view:
// aligning per-run metric series onto a shared x axis, the shared hover and
// pin cursor, and the resizable grid of chart panels.
//
// # Data Flow
//
//	fetch results ─▶ StaleDataGuard ─▶ Align ─▶ Cursor / Engine / Reorder ─▶ panels
//
// Fetch results arrive as an Aggregate (run id to RawSeries). The guard keeps
// the last non-empty aggregate so a refresh never blanks the view. Align turns
// the held data into one AlignedSeries per displayed metric, matching samples
// by index position rather than by x value.
//
// # Store
//
// Store holds everything the view reads and is only mutated through
// Dispatch with typed actions (SetRuns, SeriesSettled, PinNext, DragMove and
// so on). Derived data such as the aligned series, the distinct x values and
// the row layout are computed from the state on demand and memoized.
//
// # Layout
//
// Displayed metrics are chunked into rows of Columns panels. Each row is
// keyed by its ordered metric names (RowKey) and owns a RowSize: a shared
// height plus one width weight per panel. Dragging a panel edge moves weight
// between panels while keeping the row total constant. Drags are modelled as
// DragSession values that are committed to the store on release.
//
// Sizes are expressed in layout pixels; the terminal dashboard maps cells
// to pixels with a fixed scale.
package compare
