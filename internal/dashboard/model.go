package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MandiZhao/lowvr/internal/compare"
	"github.com/MandiZhao/lowvr/internal/fetch"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
)

// DefaultRefresh is used when Options.Refresh is not set.
const DefaultRefresh = 10 * time.Second

// Options configure a dashboard Model.
type Options struct {
	Fetcher *fetch.Fetcher
	RunIDs  []string
	// Labels maps run ids to display names.
	Labels map[string]string
	// Metrics are glob patterns selecting the charted metrics; empty charts
	// every non-internal metric.
	Metrics       []string
	Columns       int
	DefaultHeight float64
	XAxisKey      string
	Refresh       time.Duration
	Logger        logger.Logger
	Context       context.Context
}

// Model is the Bubble Tea model of the comparison dashboard. All comparison
// state lives in the store; the model only adds terminal concerns.
type Model struct {
	store    *compare.Store
	fetcher  *fetch.Fetcher
	ctx      context.Context
	cancel   context.CancelFunc
	log      logger.Logger
	runIDs   []string
	patterns []string
	refresh  time.Duration

	width  int
	height int
	// scroll is the first grid line shown below the header.
	scroll   int
	selected string

	fetching   bool
	lastUpdate time.Time
	lastErr    string
	showHelp   bool
	quitting   bool

	press   *pressState
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// catalogMsg carries the metric catalog of the compared runs.
type catalogMsg struct {
	metrics []string
	err     error
}

// seriesMsg carries the outcome of one fetch cycle.
type seriesMsg struct {
	result fetch.Result
	time   time.Time
}

// NewModel creates a dashboard for the given runs.
func NewModel(opts Options) Model {
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	refresh := opts.Refresh
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	store := compare.NewStore(compare.Options{
		Columns:       opts.Columns,
		DefaultHeight: opts.DefaultHeight,
		XAxisKey:      opts.XAxisKey,
		Gap:           cellWidth,
	})
	store.Dispatch(compare.SetRuns{IDs: opts.RunIDs, Labels: opts.Labels})

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"◐", "◓", "◑", "◒"},
		FPS:    time.Second / 10,
	}
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	h := help.New()
	h.Styles.ShortKey = LabelStyle
	h.Styles.ShortDesc = MutedStyle
	h.Styles.ShortSeparator = MutedStyle

	return Model{
		store:    store,
		fetcher:  opts.Fetcher,
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
		runIDs:   append([]string(nil), opts.RunIDs...),
		patterns: append([]string(nil), opts.Metrics...),
		refresh:  refresh,
		fetching: true,
		keys:     DefaultKeyMap(),
		help:     h,
		spinner:  sp,
	}
}

// Store exposes the comparison store.
func (m Model) Store() *compare.Store {
	return m.store
}

// Init loads the catalog, which in turn triggers the first fetch, and starts
// the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.catalogCmd(),
		m.tickCmd(),
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.MouseMsg:
		m.HandleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.store.Dispatch(compare.SetViewport{Width: float64(m.width * cellWidth)})
		m.clampScroll()

	case tickMsg:
		if m.fetching {
			m.log.Debug("refresh skipped: fetch still in flight")
			return m, m.tickCmd()
		}
		m.fetching = true
		return m, tea.Batch(m.tickCmd(), m.fetchCmd())

	case catalogMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.log.Warn("metric catalog incomplete: %v", msg.err)
		}
		if len(msg.metrics) > 0 || msg.err == nil {
			m.store.Dispatch(compare.SetMetrics{Metrics: m.chartedMetrics(msg.metrics)})
		}
		return m, m.fetchCmd()

	case seriesMsg:
		m.fetching = false
		m.lastUpdate = msg.time
		m.store.Dispatch(compare.SeriesSettled{Series: msg.result.Series, Failed: msg.result.Failed})
		if msg.result.Err != nil {
			m.log.Warn("fetch cycle finished with errors: %v", msg.result.Err)
		} else {
			m.lastErr = ""
		}
		m.clampScroll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// catalogCmd lists the metrics available across the compared runs.
func (m Model) catalogCmd() tea.Cmd {
	fetcher, ctx, ids := m.fetcher, m.ctx, m.runIDs
	return func() tea.Msg {
		metrics, err := fetcher.Catalog(ctx, ids)
		return catalogMsg{metrics: metrics, err: err}
	}
}

// fetchCmd loads the selected metrics and the x-axis key for every run.
func (m Model) fetchCmd() tea.Cmd {
	st := m.store.State()
	keys := append([]string(nil), st.Metrics...)
	if st.XAxisKey != "" {
		keys = append(keys, st.XAxisKey)
	}
	fetcher, ctx, ids := m.fetcher, m.ctx, m.runIDs
	return func() tea.Msg {
		res := fetcher.FetchAll(ctx, ids, keys)
		return seriesMsg{result: res, time: time.Now()}
	}
}

// refreshCmd reloads the catalog and then the series, unless a fetch is
// already running.
func (m *Model) refreshCmd() tea.Cmd {
	if m.fetching {
		return nil
	}
	m.fetching = true
	return m.catalogCmd()
}

// chartedMetrics narrows the catalog to the configured patterns. Without
// patterns, internal underscore keys are left out.
func (m Model) chartedMetrics(available []string) []string {
	if len(m.patterns) > 0 {
		return runs.SelectMetrics(available, m.patterns)
	}
	var out []string
	for _, k := range available {
		if !strings.HasPrefix(k, "_") {
			out = append(out, k)
		}
	}
	return out
}

// selectedMetric returns the selected panel's metric, falling back to the
// first displayed panel when the selection is gone.
func (m *Model) selectedMetric() string {
	displayed := m.store.Displayed()
	for _, d := range displayed {
		if d == m.selected {
			return d
		}
	}
	if len(displayed) == 0 {
		return ""
	}
	m.selected = displayed[0]
	return m.selected
}

// rowOf finds the layout row holding metric and its index in the row.
func (m Model) rowOf(metric string) (compare.Row, int, bool) {
	for _, row := range m.store.Layout() {
		for i, name := range row.Metrics {
			if name == metric {
				return row, i, true
			}
		}
	}
	return compare.Row{}, 0, false
}

// bodyHeight is the number of lines available to the panel grid.
func (m Model) bodyHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		return 1
	}
	return h
}

// gridHeight is the total height of the laid out grid, in lines.
func (m Model) gridHeight() int {
	rows := m.store.Layout()
	if len(rows) == 0 {
		return 0
	}
	last := rows[len(rows)-1]
	return toRows(last.Y + last.Size.Height)
}

func (m *Model) clampScroll() {
	maxScroll := m.gridHeight() - m.bodyHeight()
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// ensureVisible scrolls so the selected panel's row is on screen.
func (m *Model) ensureVisible() {
	row, _, ok := m.rowOf(m.selectedMetric())
	if !ok {
		m.clampScroll()
		return
	}
	top := toRows(row.Y)
	bottom := toRows(row.Y + row.Size.Height)
	if top < m.scroll {
		m.scroll = top
	}
	if bottom > m.scroll+m.bodyHeight() {
		m.scroll = bottom - m.bodyHeight()
	}
	m.clampScroll()
}

// SecondsSinceUpdate returns how many seconds have passed since the last fetch.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}
