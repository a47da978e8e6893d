package doctor

import (
	"fmt"

	"github.com/MandiZhao/lowvr/internal/runs"
)

// WandbDirCheck verifies the wandb directory exists and is a directory.
type WandbDirCheck struct {
	Loader *runs.Loader
}

func (c *WandbDirCheck) Name() string     { return "wandb_dir" }
func (c *WandbDirCheck) Category() string { return "WANDB" }

func (c *WandbDirCheck) Run() CheckResult {
	dir := c.Loader.Dir()
	info, err := c.Loader.Fs().Stat(dir)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Wandb directory not found: %s", dir),
			Suggestion: "Set wandb_dir in .lowvr.yaml or pass the directory as an argument",
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s is not a directory", dir),
			Suggestion: "Point wandb_dir at the folder holding run-* directories",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Wandb directory: %s", dir),
	}
}

// RunsCheck verifies the wandb directory holds at least one run.
type RunsCheck struct {
	Loader *runs.Loader
}

func (c *RunsCheck) Name() string     { return "runs" }
func (c *RunsCheck) Category() string { return "WANDB" }

func (c *RunsCheck) Run() CheckResult {
	found, err := c.Loader.Discover()
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Can't list runs: %v", err),
			Suggestion: "Check the directory permissions",
		}
	}
	if len(found) == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No runs found",
			Suggestion: "Runs live in run-<date>_<time>-<id> folders with a .wandb file or files/wandb-history.jsonl",
		}
	}

	offline := 0
	for _, r := range found {
		if r.IsOffline {
			offline++
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%d run%s (%d offline)", len(found), pluralize(len(found)), offline),
	}
}

// HistoryCheck verifies one run's history can be read.
type HistoryCheck struct {
	Loader *runs.Loader
	RunID  string
}

func (c *HistoryCheck) Name() string     { return "history_" + c.RunID }
func (c *HistoryCheck) Category() string { return "HISTORY" }

func (c *HistoryCheck) Run() CheckResult {
	rows, err := c.Loader.History(c.RunID)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Run %s: %v", c.RunID, err),
			Suggestion: "The run is skipped in comparisons until its history is readable",
		}
	}
	if len(rows) == 0 {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusWarn,
			Message: fmt.Sprintf("Run %s has no history rows", c.RunID),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Run %s: %d rows", c.RunID, len(rows)),
	}
}

// HistoryChecks returns one HistoryCheck per discovered run. Discovery errors
// yield no checks; RunsCheck reports them.
func HistoryChecks(loader *runs.Loader) []Check {
	found, err := loader.Discover()
	if err != nil {
		return nil
	}
	checks := make([]Check, 0, len(found))
	for _, r := range found {
		checks = append(checks, &HistoryCheck{Loader: loader, RunID: r.ID})
	}
	return checks
}

// DirectoryChecks are the checks serve and dash need to pass before they
// start.
func DirectoryChecks(loader *runs.Loader) []Check {
	return []Check{
		&WandbDirCheck{Loader: loader},
		&RunsCheck{Loader: loader},
	}
}

// All returns every check lowvr doctor runs: config, directory and one
// history check per run.
func All(configPath string, loader *runs.Loader) []Check {
	checks := []Check{&ConfigCheck{ConfigPath: configPath}}
	checks = append(checks, DirectoryChecks(loader)...)
	return append(checks, HistoryChecks(loader)...)
}
