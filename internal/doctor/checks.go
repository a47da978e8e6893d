package doctor

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
)

// CheckStatus represents the result status of a check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

// String returns a human-readable status string.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// CheckResult contains the outcome of running a check.
type CheckResult struct {
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Check defines the interface for diagnostic checks.
type Check interface {
	// Name returns the check's identifier.
	Name() string

	// Category returns the check's category (e.g., "CONFIG", "WANDB", "HISTORY").
	Category() string

	// Run executes the check and returns the result.
	Run() CheckResult
}

// RunAll executes all checks sequentially and returns the results.
func RunAll(checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	for i, check := range checks {
		results[i] = withCategory(check, check.Run())
	}
	return results
}

// RunAllParallel executes all checks in parallel and returns the results in
// check order.
func RunAllParallel(checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup

	for i, check := range checks {
		wg.Add(1)
		go func(idx int, c Check) {
			defer wg.Done()
			results[idx] = withCategory(c, c.Run())
		}(i, check)
	}

	wg.Wait()
	return results
}

func withCategory(c Check, r CheckResult) CheckResult {
	if r.Category == "" {
		r.Category = c.Category()
	}
	return r
}

// GroupByCategory organizes results by their category, keeping the order in
// which categories first appear.
func GroupByCategory(results []CheckResult) ([]string, map[string][]CheckResult) {
	var order []string
	grouped := make(map[string][]CheckResult)
	for _, r := range results {
		if _, seen := grouped[r.Category]; !seen {
			order = append(order, r.Category)
		}
		grouped[r.Category] = append(grouped[r.Category], r)
	}
	return order, grouped
}

// CountByStatus counts results by status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures returns true if any result has a fail status.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// HasIssues returns true if any result has a fail or warn status.
func HasIssues(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail || r.Status == StatusWarn {
			return true
		}
	}
	return false
}

// Err folds every failed result into one multierror, or nil when nothing
// failed. Warnings never produce an error.
func Err(results []CheckResult) error {
	var result *multierror.Error
	for _, r := range results {
		if r.Status != StatusFail {
			continue
		}
		result = multierror.Append(result, errors.New(errors.ErrRun, r.Message, r.Suggestion))
	}
	return result.ErrorOrNil()
}

// Summary returns a summary string of the check results.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	warn := counts[StatusWarn]
	fail := counts[StatusFail]

	if fail == 0 && warn == 0 {
		return "Everything looks good"
	}

	total := warn + fail
	return fmt.Sprintf("%d issue%s found", total, pluralize(total))
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Preflight runs the directory checks that serve and dash depend on.
// Failures abort startup; warnings are only logged.
func Preflight(loader *runs.Loader, log logger.Logger) error {
	if log == nil {
		log = logger.Noop()
	}

	results := RunAllParallel(DirectoryChecks(loader))
	for _, r := range results {
		switch r.Status {
		case StatusWarn:
			log.Warn("%s: %s", r.Name, r.Message)
		case StatusPass:
			log.Debug("%s: %s", r.Name, r.Message)
		}
	}

	if err := Err(results); err != nil {
		return errors.WrapWithCode(err, errors.ErrRun,
			"Preflight checks failed for "+loader.Dir(),
			"Run 'lowvr doctor' for details")
	}
	return nil
}
