package doctor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status   CheckStatus
		expected string
	}{
		{StatusPass, "pass"},
		{StatusWarn, "warn"},
		{StatusFail, "fail"},
		{CheckStatus(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

// mockCheck is a test implementation of Check.
type mockCheck struct {
	name     string
	category string
	result   CheckResult
}

func (m *mockCheck) Name() string     { return m.name }
func (m *mockCheck) Category() string { return m.category }
func (m *mockCheck) Run() CheckResult { return m.result }

func mockChecks() []Check {
	return []Check{
		&mockCheck{name: "check1", category: "CONFIG", result: CheckResult{Name: "check1", Status: StatusPass, Message: "OK"}},
		&mockCheck{name: "check2", category: "WANDB", result: CheckResult{Name: "check2", Status: StatusFail, Message: "dir missing"}},
		&mockCheck{name: "check3", category: "WANDB", result: CheckResult{Name: "check3", Status: StatusWarn, Message: "no runs"}},
	}
}

func TestRunAll(t *testing.T) {
	results := RunAll(mockChecks())

	require.Len(t, results, 3)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, StatusFail, results[1].Status)
	assert.Equal(t, "CONFIG", results[0].Category, "category is filled from the check")
}

func TestRunAllParallel(t *testing.T) {
	results := RunAllParallel(mockChecks())

	require.Len(t, results, 3)
	for i, name := range []string{"check1", "check2", "check3"} {
		assert.Equal(t, name, results[i].Name, "results keep check order")
	}
}

func TestGroupByCategory(t *testing.T) {
	order, grouped := GroupByCategory(RunAll(mockChecks()))

	assert.Equal(t, []string{"CONFIG", "WANDB"}, order)
	assert.Len(t, grouped["CONFIG"], 1)
	assert.Len(t, grouped["WANDB"], 2)
}

func TestResultHelpers(t *testing.T) {
	tests := []struct {
		name        string
		results     []CheckResult
		hasFailures bool
		hasIssues   bool
		summary     string
	}{
		{
			name:    "empty",
			summary: "Everything looks good",
		},
		{
			name:    "all pass",
			results: []CheckResult{{Status: StatusPass}, {Status: StatusPass}},
			summary: "Everything looks good",
		},
		{
			name:      "one warning",
			results:   []CheckResult{{Status: StatusPass}, {Status: StatusWarn}},
			hasIssues: true,
			summary:   "1 issue found",
		},
		{
			name:        "mixed",
			results:     []CheckResult{{Status: StatusFail}, {Status: StatusWarn}, {Status: StatusFail}},
			hasFailures: true,
			hasIssues:   true,
			summary:     "3 issues found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hasFailures, HasFailures(tt.results))
			assert.Equal(t, tt.hasIssues, HasIssues(tt.results))
			assert.Equal(t, tt.summary, Summary(tt.results))
		})
	}
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus(RunAll(mockChecks()))
	assert.Equal(t, 1, counts[StatusPass])
	assert.Equal(t, 1, counts[StatusWarn])
	assert.Equal(t, 1, counts[StatusFail])
}

func TestErr(t *testing.T) {
	assert.NoError(t, Err(nil))
	assert.NoError(t, Err([]CheckResult{{Status: StatusWarn, Message: "no runs"}}))

	err := Err([]CheckResult{
		{Status: StatusFail, Message: "first failure"},
		{Status: StatusPass, Message: "fine"},
		{Status: StatusFail, Message: "second failure"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "first failure")
	assert.Contains(t, err.Error(), "second failure")
	assert.NotContains(t, err.Error(), "fine")
}

func TestPreflight(t *testing.T) {
	t.Run("missing directory aborts", func(t *testing.T) {
		loader := runs.NewLoader(newFixture(t), "/nowhere", logger.Noop())
		err := Preflight(loader, logger.Noop())
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrRun))
		assert.Contains(t, err.Error(), "Wandb directory not found")
	})

	t.Run("empty directory warns", func(t *testing.T) {
		fs := newFixture(t)
		require.NoError(t, fs.MkdirAll("/empty", 0o755))
		log := logger.NewBufferLogger()

		require.NoError(t, Preflight(runs.NewLoader(fs, "/empty", logger.Noop()), log))
		assert.True(t, log.HasLevel("warn"))
	})

	t.Run("healthy directory passes quietly", func(t *testing.T) {
		log := logger.NewBufferLogger()
		require.NoError(t, Preflight(runs.NewLoader(newFixture(t), testDir, logger.Noop()), log))
		assert.False(t, log.HasLevel("warn"))
		assert.True(t, log.HasLevel("debug"))
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NoError(t, Preflight(runs.NewLoader(newFixture(t), testDir, nil), nil))
	})
}
