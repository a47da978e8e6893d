package fetch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/MandiZhao/lowvr/internal/compare"
	lverrors "github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 30 * time.Second
)

// Result is the outcome of one fetch cycle over a set of runs.
type Result struct {
	// Series holds the runs that loaded successfully.
	Series compare.Aggregate
	// Failed maps each run that could not be loaded to its error.
	Failed map[string]error
	// Err combines every per-run failure, or is nil.
	Err error
}

// Fetcher loads series for many runs in parallel.
type Fetcher struct {
	source      Source
	concurrency int
	timeout     time.Duration
	log         logger.Logger
}

// NewFetcher creates a fetcher. Non-positive concurrency or timeout fall back
// to the defaults.
func NewFetcher(source Source, concurrency int, timeout time.Duration, log logger.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Fetcher{source: source, concurrency: concurrency, timeout: timeout, log: log}
}

// Source returns the underlying source.
func (f *Fetcher) Source() Source {
	return f.source
}

// FetchAll loads keys for every run. A failing run never aborts the others;
// its error is reported in Result.Failed and folded into Result.Err.
func (f *Fetcher) FetchAll(ctx context.Context, runIDs []string, keys []string) Result {
	var (
		mu     sync.Mutex
		series = make(compare.Aggregate, len(runIDs))
		failed = make(map[string]error)
		merr   *multierror.Error
	)

	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)

	for _, id := range runIDs {
		id := id
		g.Go(func() error {
			start := time.Now()
			runCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			s, err := f.source.FetchMetrics(runCtx, id, keys)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				wrapped := lverrors.WrapWithCode(err, lverrors.ErrFetch,
					fmt.Sprintf("Failed to load run %s", id), "")
				failed[id] = wrapped
				merr = multierror.Append(merr, wrapped)
				f.log.Warn("fetch %s failed: %v", id, err)
				return nil
			}
			series[id] = s
			f.log.Debug("fetched %s (%d metrics) in %s", id, len(s), time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	_ = g.Wait()

	return Result{Series: series, Failed: failed, Err: merr.ErrorOrNil()}
}

// Catalog returns the sorted union of metrics available across runs. Runs
// that fail to answer are skipped; the combined error is returned alongside
// whatever was collected.
func (f *Fetcher) Catalog(ctx context.Context, runIDs []string) ([]string, error) {
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		merr *multierror.Error
	)

	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)

	for _, id := range runIDs {
		id := id
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			keys, err := f.source.AvailableMetrics(runCtx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", id, err))
				return nil
			}
			for _, k := range keys {
				seen[k] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, merr.ErrorOrNil()
}
