package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MandiZhao/lowvr/internal/compare"
)

// resizeStep is the pointer distance, in layout pixels, of one resize key press.
const resizeStep = 32.0

// KeyMap holds the dashboard key bindings. It implements help.KeyMap.
type KeyMap struct {
	Quit       key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	PinPrev    key.Binding
	PinNext    key.Binding
	Escape     key.Binding
	MoreCols   key.Binding
	FewerCols  key.Binding
	CycleXAxis key.Binding
	MoveLeft   key.Binding
	MoveRight  key.Binding
	Narrower   key.Binding
	Wider      key.Binding
	Shorter    key.Binding
	Taller     key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous panel")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next panel")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "panel above")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "panel below")),
		PinPrev:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "pin previous x")),
		PinNext:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "pin next x")),
		Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "unpin / close")),
		MoreCols:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more columns")),
		FewerCols:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer columns")),
		CycleXAxis: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cycle x axis")),
		MoveLeft:   key.NewBinding(key.WithKeys("<", ","), key.WithHelp("<", "move panel left")),
		MoveRight:  key.NewBinding(key.WithKeys(">", "."), key.WithHelp(">", "move panel right")),
		Narrower:   key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "narrower")),
		Wider:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "wider")),
		Shorter:    key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "shorter row")),
		Taller:     key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "taller row")),
	}
}

// ShortHelp is shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.PinPrev, k.PinNext, k.CycleXAxis, k.Help}
}

// FullHelp is shown in the help overlay, one group per column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.MoveLeft, k.MoveRight},
		{k.PinPrev, k.PinNext, k.Escape, k.CycleXAxis, k.MoreCols, k.FewerCols},
		{k.Narrower, k.Wider, k.Shorter, k.Taller, k.Refresh, k.Quit},
	}
}

// HandleKeyMsg processes keyboard input.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Help toggle takes priority
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) {
			m.showHelp = false
			return true, nil
		}
		if !key.Matches(msg, m.keys.Quit) {
			return true, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.cancel != nil {
			m.cancel()
		}
		return true, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return true, m.refreshCmd()

	case key.Matches(msg, m.keys.Escape):
		m.store.Dispatch(compare.Unpin{})
		return true, nil

	case key.Matches(msg, m.keys.Left):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-m.store.State().Columns)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(m.store.State().Columns)

	case key.Matches(msg, m.keys.PinPrev):
		m.store.Dispatch(compare.PinPrev{})
	case key.Matches(msg, m.keys.PinNext):
		m.store.Dispatch(compare.PinNext{})

	case key.Matches(msg, m.keys.MoreCols):
		m.store.Dispatch(compare.SetColumns{Columns: m.store.State().Columns + 1})
	case key.Matches(msg, m.keys.FewerCols):
		m.store.Dispatch(compare.SetColumns{Columns: m.store.State().Columns - 1})

	case key.Matches(msg, m.keys.CycleXAxis):
		m.store.Dispatch(compare.CycleXAxisKey{})

	case key.Matches(msg, m.keys.MoveLeft):
		m.moveSelected(-1)
	case key.Matches(msg, m.keys.MoveRight):
		m.moveSelected(1)

	case key.Matches(msg, m.keys.Narrower):
		m.resizeSelected(-resizeStep, 0)
	case key.Matches(msg, m.keys.Wider):
		m.resizeSelected(resizeStep, 0)
	case key.Matches(msg, m.keys.Shorter):
		m.resizeSelected(0, -resizeStep)
	case key.Matches(msg, m.keys.Taller):
		m.resizeSelected(0, resizeStep)

	default:
		return false, nil
	}

	m.ensureVisible()
	return true, nil
}

// moveSelection shifts the selected panel by offset positions in display order.
func (m *Model) moveSelection(offset int) {
	displayed := m.store.Displayed()
	if len(displayed) == 0 {
		return
	}
	if next := compare.Neighbor(displayed, m.selectedMetric(), offset); next != "" {
		m.selected = next
	}
}

// moveSelected swaps the selected panel into the slot of its neighbour.
func (m *Model) moveSelected(offset int) {
	sel := m.selectedMetric()
	target := compare.Neighbor(m.store.Displayed(), sel, offset)
	if target == "" {
		return
	}
	m.store.Dispatch(compare.ReorderMetrics{Dragged: sel, Target: target})
	m.selected = sel
}

// resizeSelected runs a one-move resize drag on the selected panel.
func (m *Model) resizeSelected(dx, dy float64) {
	if _, dragging := m.store.Drag(); dragging {
		return
	}
	row, idx, ok := m.rowOf(m.selectedMetric())
	if !ok {
		return
	}
	m.store.Dispatch(compare.DragStart{Kind: compare.DragResize, RowKey: row.Key, PanelIndex: idx})
	m.store.Dispatch(compare.DragMove{DX: dx, DY: dy})
	m.store.Dispatch(compare.DragEnd{})
}
