// Package fetch loads metric series for the comparison view, either from a
// local wandb directory or from a remote lowvr server, and fans requests out
// over runs with a concurrency limit.
package fetch

import (
	"context"

	"github.com/MandiZhao/lowvr/internal/compare"
	"github.com/MandiZhao/lowvr/internal/runs"
)

// Source provides run listings and per-run metric series.
type Source interface {
	// Runs lists the runs known to the source.
	Runs(ctx context.Context) ([]runs.Run, error)
	// FetchMetrics returns the requested metric columns of one run. The
	// candidate x-axis keys are always included.
	FetchMetrics(ctx context.Context, runID string, keys []string) (compare.RawSeries, error)
	// AvailableMetrics lists the numeric metrics of one run.
	AvailableMetrics(ctx context.Context, runID string) ([]string, error)
}

// LocalSource reads runs straight from disk.
type LocalSource struct {
	loader *runs.Loader
}

// NewLocalSource wraps a loader.
func NewLocalSource(loader *runs.Loader) *LocalSource {
	return &LocalSource{loader: loader}
}

func (s *LocalSource) Runs(ctx context.Context) ([]runs.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loader.Discover()
}

func (s *LocalSource) FetchMetrics(ctx context.Context, runID string, keys []string) (compare.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loader.Metrics(runID, keys)
}

func (s *LocalSource) AvailableMetrics(ctx context.Context, runID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loader.AvailableMetrics(runID)
}
