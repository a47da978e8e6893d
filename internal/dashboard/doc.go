// Package dashboard implements the terminal run-comparison dashboard.
//
// Every selected metric gets a panel with a braille line chart holding one
// line per run, aligned on a shared x axis. Panels are laid out in rows by
// the compare package; the dashboard maps its pixel layout onto terminal
// cells (8 px per column, 16 px per row) for both rendering and mouse
// hit-testing.
//
// # Message Flow
//
//  1. Init loads the metric catalog of the compared runs (catalogMsg)
//  2. The catalog selects the charted metrics and triggers a fetch
//  3. seriesMsg delivers the fetch result as a SeriesSettled action
//  4. tickMsg repeats the fetch every refresh interval, unless the
//     previous fetch is still running
//
// # Interaction
//
// Hovering a plot moves the shared cursor; clicking pins it. Dragging a
// panel title reorders panels, dragging the ◢ handle resizes the row. The
// same operations are available from the keyboard, see keybindings.go.
package dashboard
