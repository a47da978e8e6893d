package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MandiZhao/lowvr/internal/config"
	"github.com/MandiZhao/lowvr/internal/dashboard"
	"github.com/MandiZhao/lowvr/internal/doctor"
	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
	"github.com/MandiZhao/lowvr/internal/ui"
)

// dashLogFile receives log output while the dashboard owns the terminal.
const dashLogFile = "lowvr.log"

type dashOptions struct {
	Runs    []string
	Metrics []string
	Columns int
	XAxis   string
	Refresh time.Duration
	Remote  string
	Pick    bool
}

// dashPlan is everything the dashboard needs, resolved from flags, config and
// the available runs.
type dashPlan struct {
	RunIDs  []string
	Labels  map[string]string
	Metrics []string
	Columns int
	Height  int
	XAxis   string
	Refresh time.Duration
}

// dashCommand starts the terminal comparison dashboard.
func dashCommand(ctx context.Context, args []string, opts dashOptions) error {
	if err := validateColumns(opts.Columns); err != nil {
		return err
	}
	if err := validateRefresh(opts.Refresh); err != nil {
		return err
	}
	if err := config.ValidateMetricPatterns(opts.Metrics); err != nil {
		return errors.WrapWithCode(err, errors.ErrInput, "Invalid --metrics pattern",
			"Patterns are globs like 'train/*' or '**/loss'")
	}

	e, err := loadEnv(args, opts.Remote)
	if err != nil {
		return err
	}
	if e.loader != nil {
		if err := doctor.Preflight(e.loader, e.log); err != nil {
			return err
		}
	}

	all, err := e.source.Runs(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return errors.New(errors.ErrRun, "No runs to compare",
			"Run 'lowvr doctor' to check the wandb directory")
	}

	plan, err := planDash(e.cfg, all, opts)
	if err != nil {
		return err
	}
	if opts.Pick {
		if err := pickDash(ctx, e, all, &plan); err != nil {
			return err
		}
	}

	return runDashboard(ctx, e, plan)
}

// planDash merges flags over config. Flags left at their zero value keep the
// configured setting.
func planDash(cfg *config.Config, all []runs.Run, opts dashOptions) (dashPlan, error) {
	d := cfg.Dashboard
	plan := dashPlan{
		Labels:  runLabels(all),
		Metrics: d.Metrics,
		Columns: d.Columns,
		Height:  d.DefaultHeight,
		XAxis:   d.XAxisKey,
		Refresh: d.Refresh,
	}
	if len(opts.Metrics) > 0 {
		plan.Metrics = opts.Metrics
	}
	if opts.Columns > 0 {
		plan.Columns = opts.Columns
	}
	if opts.XAxis != "" {
		plan.XAxis = opts.XAxis
	}
	if opts.Refresh > 0 {
		plan.Refresh = opts.Refresh
	}

	// --pick chooses runs itself; --runs still narrows what it offers.
	limit := d.MaxRuns
	if opts.Pick {
		limit = 0
	}
	ids, err := resolveRuns(all, opts.Runs, limit)
	if err != nil {
		return dashPlan{}, err
	}
	plan.RunIDs = ids
	return plan, nil
}

// pickDash lets the user choose runs, then metrics among those runs.
func pickDash(ctx context.Context, e *env, all []runs.Run, plan *dashPlan) error {
	offered := make(map[string]bool, len(plan.RunIDs))
	for _, id := range plan.RunIDs {
		offered[id] = true
	}
	var choices []ui.PickOption
	for _, r := range all {
		if !offered[r.ID] {
			continue
		}
		choices = append(choices, ui.PickOption{
			Label: fmt.Sprintf("%s (%s)", r.DisplayName, r.ID),
			Value: r.ID,
		})
	}
	ids, err := ui.Pick("Runs to compare", choices, 0)
	if err != nil {
		return err
	}
	plan.RunIDs = ids

	catalog, err := e.fetcher().Catalog(ctx, ids)
	if err != nil && len(catalog) == 0 {
		return err
	}
	selected := runs.SelectMetrics(catalog, plan.Metrics)
	pre := make(map[string]bool, len(selected))
	for _, m := range selected {
		pre[m] = true
	}
	choices = choices[:0]
	for _, m := range catalog {
		if strings.HasPrefix(m, "_") {
			continue
		}
		choices = append(choices, ui.PickOption{Value: m, Selected: pre[m]})
	}
	metrics, err := ui.Pick("Metrics to chart", choices, 0)
	if err != nil {
		return err
	}
	plan.Metrics = make([]string, len(metrics))
	for i, m := range metrics {
		plan.Metrics[i] = quoteGlob(m)
	}
	return nil
}

// runDashboard hands the terminal to Bubble Tea until the user quits.
func runDashboard(ctx context.Context, e *env, plan dashPlan) error {
	logPath := filepath.Join(os.TempDir(), dashLogFile)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrInput, "Can't open log file "+logPath, "")
	}
	defer f.Close()
	logger.SetOutput(f)
	defer logger.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := dashboard.NewModel(dashboard.Options{
		Fetcher:       e.fetcher(),
		RunIDs:        plan.RunIDs,
		Labels:        plan.Labels,
		Metrics:       plan.Metrics,
		Columns:       plan.Columns,
		DefaultHeight: float64(plan.Height),
		XAxisKey:      plan.XAxis,
		Refresh:       plan.Refresh,
		Logger:        logger.NewEnvLogger("dashboard"),
		Context:       ctx,
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return errors.WrapWithCode(err, errors.ErrInput, "Dashboard failed",
			"See "+logPath+" for details")
	}
	return nil
}
