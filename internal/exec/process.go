package exec

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/hashicorp/go-multierror"

	"github.com/MandiZhao/lowvr/internal/errors"
)

// Errors returned by Processes.Terminate.
var (
	ErrProcessGone = stderrors.New("process already exited")
	ErrPermission  = stderrors.New("permission denied")
)

// Processes finds processes by their full command line and asks them to stop.
type Processes interface {
	// Find returns the PIDs whose command line matches the regular
	// expression pattern. No match is not an error.
	Find(ctx context.Context, pattern string) ([]int, error)
	// Terminate sends SIGTERM to pid.
	Terminate(pid int) error
}

// Local implements Processes with pgrep and kill on this machine.
type Local struct{}

// Find runs pgrep -f pattern.
func (Local) Find(ctx context.Context, pattern string) ([]int, error) {
	stdout, stderr, code, err := ExecuteLocalCapture(ctx, "pgrep", "-f", pattern)
	if err != nil {
		return nil, err
	}
	switch code {
	case 0:
		return ParsePIDs(stdout), nil
	case 1:
		return nil, nil
	}
	return nil, errors.New(errors.ErrExec,
		fmt.Sprintf("pgrep exited with status %d: %s", code, strings.TrimSpace(string(stderr))),
		"Check that the pattern is a valid regular expression")
}

// Terminate sends SIGTERM. A process that is already gone yields
// ErrProcessGone and one owned by another user yields ErrPermission.
func (Local) Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return ErrProcessGone
	}
	err = proc.Signal(syscall.SIGTERM)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, os.ErrProcessDone), stderrors.Is(err, syscall.ESRCH):
		return ErrProcessGone
	case stderrors.Is(err, os.ErrPermission):
		return ErrPermission
	}
	return errors.WrapWithCode(err, errors.ErrExec,
		fmt.Sprintf("Couldn't signal process %d", pid), "")
}

// ParsePIDs reads one PID per line, skipping anything that isn't a number.
func ParsePIDs(out []byte) []int {
	var pids []int
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// StopResult reports what Stop did. Pattern is empty when no pattern
// matched a process.
type StopResult struct {
	Pattern string
	Stopped []int
	Failed  []int
}

// Stop tries patterns in order. The first one that matches any process wins
// and every process it matched gets SIGTERM; later patterns are not tried.
// Processes that exit before the signal count as neither stopped nor failed.
// Failed holds the PIDs the caller may not signal.
//
// A pattern whose lookup fails is skipped. The error is returned only when
// every lookup failed, or alongside the result when a signal failed for a
// reason other than permissions.
func Stop(ctx context.Context, procs Processes, patterns []string) (StopResult, error) {
	res := StopResult{Stopped: []int{}, Failed: []int{}}

	var findErrs *multierror.Error
	var pids []int
	for _, pattern := range patterns {
		found, err := procs.Find(ctx, pattern)
		if err != nil {
			findErrs = multierror.Append(findErrs, fmt.Errorf("%s: %w", pattern, err))
			continue
		}
		pids = uniquePIDs(found)
		if len(pids) > 0 {
			res.Pattern = pattern
			break
		}
	}
	if res.Pattern == "" {
		if findErrs != nil && findErrs.Len() == len(patterns) {
			return res, errors.WrapWithCode(findErrs.ErrorOrNil(), errors.ErrExec,
				"Couldn't look up running processes",
				"Make sure pgrep is installed")
		}
		return res, nil
	}

	var killErrs *multierror.Error
	for _, pid := range pids {
		err := procs.Terminate(pid)
		switch {
		case err == nil:
			res.Stopped = append(res.Stopped, pid)
		case stderrors.Is(err, ErrProcessGone):
		case stderrors.Is(err, ErrPermission):
			res.Failed = append(res.Failed, pid)
		default:
			killErrs = multierror.Append(killErrs, err)
		}
	}
	return res, killErrs.ErrorOrNil()
}

// uniquePIDs sorts and dedupes pids and drops our own process.
func uniquePIDs(pids []int) []int {
	self := os.Getpid()
	seen := make(map[int]bool, len(pids))
	out := make([]int, 0, len(pids))
	for _, pid := range pids {
		if pid == self || seen[pid] {
			continue
		}
		seen[pid] = true
		out = append(out, pid)
	}
	sort.Ints(out)
	return out
}
