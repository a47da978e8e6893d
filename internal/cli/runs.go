package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/MandiZhao/lowvr/internal/compare"
	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/fetch"
	"github.com/MandiZhao/lowvr/internal/ui"
)

type runsOptions struct {
	JSON   bool
	Limit  int
	Trend  string
	Remote string
}

// runsCommand lists the runs of a wandb directory or remote server.
func runsCommand(ctx context.Context, w io.Writer, args []string, opts runsOptions) error {
	e, err := loadEnv(args, opts.Remote)
	if err != nil {
		return err
	}
	return listRuns(ctx, w, e.fetcher(), opts, e.tty && !opts.JSON, time.Now())
}

func listRuns(ctx context.Context, w io.Writer, f *fetch.Fetcher, opts runsOptions, styled bool, now time.Time) error {
	all, err := f.Source().Runs(ctx)
	if err != nil {
		return err
	}
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}

	if opts.JSON {
		return WriteJSONSuccess(w, all)
	}

	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	counts := metricCounts(ctx, f.Source(), ids)

	var trends compare.Aggregate
	if opts.Trend != "" {
		trends = f.FetchAll(ctx, ids, []string{opts.Trend}).Series
	}

	rows := make([]ui.RunRow, len(all))
	for i, r := range all {
		rows[i] = ui.RunRow{
			ID:        r.ID,
			Name:      r.DisplayName,
			State:     r.State,
			Offline:   r.IsOffline,
			CreatedAt: r.CreatedAt,
			Metrics:   counts[i],
		}
		if s, ok := trends[r.ID][opts.Trend]; ok {
			rows[i].Trend = floats(s)
		}
	}

	if styled {
		_, err = fmt.Fprint(w, ui.RenderRunsTable(rows, now))
		return err
	}
	if len(rows) == 0 {
		_, err = fmt.Fprintln(w, "No runs found")
		return err
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = ui.RunCells(r, now)
	}
	_, err = fmt.Fprint(w, ui.RenderPlainTable(ui.RunTableTitles, cells))
	return err
}

// metricCounts returns the number of available metrics of each run, 0 for
// runs that fail to answer.
func metricCounts(ctx context.Context, src fetch.Source, ids []string) []int {
	counts := make([]int, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetch.DefaultConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			keys, err := src.AvailableMetrics(ctx, id)
			if err == nil {
				counts[i] = len(keys)
			}
			return nil
		})
	}
	_ = g.Wait()
	return counts
}

// floats converts a series to float64, with NaN for nulls.
func floats(s compare.Series) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = math.NaN()
		if v.Valid {
			out[i] = v.V
		}
	}
	return out
}

type metricsOptions struct {
	JSON   bool
	Remote string
}

// MetricInfo summarizes one metric of a run.
type MetricInfo struct {
	Name   string   `json:"name"`
	Points int      `json:"points"`
	Last   *float64 `json:"last"`
}

// metricsCommand lists the metrics logged by one run. args is
// [wandb_dir] <run>.
func metricsCommand(ctx context.Context, w io.Writer, args []string, opts metricsOptions) error {
	runID := args[len(args)-1]
	e, err := loadEnv(args[:len(args)-1], opts.Remote)
	if err != nil {
		return err
	}
	return listMetrics(ctx, w, e.source, runID, opts.JSON, e.tty)
}

func listMetrics(ctx context.Context, w io.Writer, src fetch.Source, runID string, asJSON, styled bool) error {
	series, err := src.FetchMetrics(ctx, runID, nil)
	if err != nil {
		return err
	}
	if series.Empty() {
		return errors.New(errors.ErrRun,
			fmt.Sprintf("Run %s has no numeric metrics", runID),
			"Run 'lowvr doctor' to check its history")
	}

	names := series.Keys()
	sort.Strings(names)
	infos := make([]MetricInfo, len(names))
	for i, name := range names {
		info := MetricInfo{Name: name}
		for _, v := range series[name] {
			if v.Valid {
				info.Points++
				last := v.V
				info.Last = &last
			}
		}
		infos[i] = info
	}

	if asJSON {
		return WriteJSONSuccess(w, infos)
	}

	cells := make([][]string, len(infos))
	for i, info := range infos {
		last := "-"
		if info.Last != nil {
			last = humanize.FtoaWithDigits(math.Round(*info.Last*1e4)/1e4, 4)
		}
		cells[i] = []string{info.Name, humanize.Comma(int64(info.Points)), last}
	}
	titles := []string{"METRIC", "POINTS", "LAST"}
	if styled {
		_, err = fmt.Fprintln(w, ui.RenderSimpleTable(titles, cells))
		return err
	}
	_, err = fmt.Fprint(w, ui.RenderPlainTable(titles, cells))
	return err
}
