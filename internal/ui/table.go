package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Not focused, so the cursor row must look like every other row.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string, sizing each
// column to its widest cell.
func RenderSimpleTable(titles []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	columns := make([]TableColumn, len(titles))
	for i, title := range titles {
		columns[i] = TableColumn{Title: title, Width: lipgloss.Width(title)}
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		for j, cell := range row {
			if j < len(columns) {
				columns[j].Width = max(columns[j].Width, lipgloss.Width(cell))
			}
		}
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}

// RenderPlainTable renders tab-aligned columns without styling, for output
// that is piped or redirected.
func RenderPlainTable(titles []string, rows [][]string) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(titles, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	return sb.String()
}

// RunRow is one line of the runs listing.
type RunRow struct {
	ID        string
	Name      string
	State     string
	Offline   bool
	CreatedAt *time.Time
	Metrics   int
	Trend     []float64 // Optional history of one metric
}

// RunTableTitles are the column titles of the runs listing. TREND is only
// shown when some row has one.
var RunTableTitles = []string{"ID", "NAME", "STATE", "CREATED", "METRICS"}

// RunCells returns the plain cells of a run row, in RunTableTitles order.
func RunCells(r RunRow, now time.Time) []string {
	state := r.State
	if state == "" {
		state = "-"
	}
	if r.Offline {
		state += " (offline)"
	}
	created := "-"
	if r.CreatedAt != nil {
		created = humanize.RelTime(*r.CreatedAt, now, "ago", "from now")
	}
	return []string{r.ID, r.Name, state, created, humanize.Comma(int64(r.Metrics))}
}

// RenderRunsTable renders the styled runs listing. Offline runs get a hollow
// marker; the trend column holds a sparkline of each run's history.
func RenderRunsTable(rows []RunRow, now time.Time) string {
	if len(rows) == 0 {
		return "No runs found"
	}

	trend := false
	cells := make([][]string, len(rows))
	widths := make([]int, len(RunTableTitles))
	for i, title := range RunTableTitles {
		widths[i] = len(title)
	}
	for i, r := range rows {
		cells[i] = RunCells(r, now)
		for j, c := range cells[i] {
			widths[j] = max(widths[j], lipgloss.Width(c))
		}
		trend = trend || len(r.Trend) > 0
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	header := "  "
	for j, title := range RunTableTitles {
		header += padRight(title, widths[j]+2)
	}
	if trend {
		header += "TREND"
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(strings.TrimRight(header, " ")) + "\n")
	for i, r := range rows {
		marker := SuccessStyle().Render(SymbolOnline)
		if r.Offline {
			marker = MutedStyle().Render(SymbolOffline)
		}
		line := marker + " "
		for j, c := range cells[i] {
			if j == 0 {
				c = InfoStyle().Render(c)
			}
			line += padRight(c, widths[j]+2)
		}
		if trend {
			line += RenderSparkline(r.Trend, 20)
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	return sb.String()
}

// DoctorCheckRow represents a row in the doctor diagnostic table.
type DoctorCheckRow struct {
	Status     string // "pass", "warn", "fail"
	Category   string
	Message    string
	Suggestion string
}

// RenderDoctorTable renders doctor check results grouped by category, in the
// order categories first appear.
func RenderDoctorTable(rows []DoctorCheckRow) string {
	if len(rows) == 0 {
		return "No checks to display"
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	categories := make(map[string][]DoctorCheckRow)
	var categoryOrder []string
	for _, row := range rows {
		if _, exists := categories[row.Category]; !exists {
			categoryOrder = append(categoryOrder, row.Category)
		}
		categories[row.Category] = append(categories[row.Category], row)
	}

	var sb strings.Builder
	for _, cat := range categoryOrder {
		sb.WriteString(headerStyle.Render(cat) + "\n")

		for _, row := range categories[cat] {
			var statusIcon string
			switch row.Status {
			case "pass":
				statusIcon = SuccessStyle().Render(SymbolSuccess)
			case "warn":
				statusIcon = WarningStyle().Render(SymbolWarning)
			case "fail":
				statusIcon = ErrorStyle().Render(SymbolFail)
			default:
				statusIcon = MutedStyle().Render(SymbolPending)
			}

			sb.WriteString("  " + statusIcon + " " + row.Message + "\n")
			if row.Suggestion != "" && row.Status != "pass" {
				sb.WriteString("    " + MutedStyle().Render(row.Suggestion) + "\n")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
