package exec

import (
	"context"
	stderrors "errors"
	"os"
	osexec "os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MandiZhao/lowvr/internal/errors"
)

// fakeProcesses answers Find from a pattern table and Terminate from sets of
// gone and denied PIDs.
type fakeProcesses struct {
	matches map[string][]int
	findErr map[string]error
	gone    map[int]bool
	denied  map[int]bool
	broken  map[int]bool

	tried      []string
	terminated []int
}

func (f *fakeProcesses) Find(_ context.Context, pattern string) ([]int, error) {
	f.tried = append(f.tried, pattern)
	if err := f.findErr[pattern]; err != nil {
		return nil, err
	}
	return f.matches[pattern], nil
}

func (f *fakeProcesses) Terminate(pid int) error {
	f.terminated = append(f.terminated, pid)
	switch {
	case f.gone[pid]:
		return ErrProcessGone
	case f.denied[pid]:
		return ErrPermission
	case f.broken[pid]:
		return stderrors.New("kill: invalid argument")
	}
	return nil
}

func TestStop(t *testing.T) {
	patterns := []string{"ant_walk_v2", "clip_07", "train.py.*abc123"}

	tests := []struct {
		name        string
		procs       *fakeProcesses
		wantPattern string
		wantStopped []int
		wantFailed  []int
		wantTried   []string
		wantErr     bool
	}{
		{
			name:        "first matching pattern wins",
			procs:       &fakeProcesses{matches: map[string][]int{"ant_walk_v2": {12}, "clip_07": {99}}},
			wantPattern: "ant_walk_v2",
			wantStopped: []int{12},
			wantFailed:  []int{},
			wantTried:   []string{"ant_walk_v2"},
		},
		{
			name:        "falls through to later patterns",
			procs:       &fakeProcesses{matches: map[string][]int{"train.py.*abc123": {40, 41}}},
			wantPattern: "train.py.*abc123",
			wantStopped: []int{40, 41},
			wantFailed:  []int{},
			wantTried:   patterns,
		},
		{
			name:        "duplicates are signalled once in order",
			procs:       &fakeProcesses{matches: map[string][]int{"clip_07": {9, 3, 9}}},
			wantPattern: "clip_07",
			wantStopped: []int{3, 9},
			wantFailed:  []int{},
			wantTried:   []string{"ant_walk_v2", "clip_07"},
		},
		{
			name:        "nothing matches",
			procs:       &fakeProcesses{},
			wantStopped: []int{},
			wantFailed:  []int{},
			wantTried:   patterns,
		},
		{
			name: "failed lookup is skipped",
			procs: &fakeProcesses{
				findErr: map[string]error{"ant_walk_v2": stderrors.New("bad regex")},
				matches: map[string][]int{"clip_07": {5}},
			},
			wantPattern: "clip_07",
			wantStopped: []int{5},
			wantFailed:  []int{},
			wantTried:   []string{"ant_walk_v2", "clip_07"},
		},
		{
			name: "every lookup failing is an error",
			procs: &fakeProcesses{findErr: map[string]error{
				"ant_walk_v2":      stderrors.New("no pgrep"),
				"clip_07":          stderrors.New("no pgrep"),
				"train.py.*abc123": stderrors.New("no pgrep"),
			}},
			wantStopped: []int{},
			wantFailed:  []int{},
			wantTried:   patterns,
			wantErr:     true,
		},
		{
			name: "exited and denied processes",
			procs: &fakeProcesses{
				matches: map[string][]int{"ant_walk_v2": {1, 2, 3}},
				gone:    map[int]bool{1: true},
				denied:  map[int]bool{3: true},
			},
			wantPattern: "ant_walk_v2",
			wantStopped: []int{2},
			wantFailed:  []int{3},
			wantTried:   []string{"ant_walk_v2"},
		},
		{
			name: "unexpected signal error is returned with the result",
			procs: &fakeProcesses{
				matches: map[string][]int{"ant_walk_v2": {1, 2}},
				broken:  map[int]bool{2: true},
			},
			wantPattern: "ant_walk_v2",
			wantStopped: []int{1},
			wantFailed:  []int{},
			wantTried:   []string{"ant_walk_v2"},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Stop(context.Background(), tt.procs, patterns)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantPattern, res.Pattern)
			assert.Equal(t, tt.wantStopped, res.Stopped)
			assert.Equal(t, tt.wantFailed, res.Failed)
			assert.Equal(t, tt.wantTried, tt.procs.tried)
		})
	}
}

func TestStop_AllLookupsFailedHasExecCode(t *testing.T) {
	procs := &fakeProcesses{findErr: map[string]error{"x": stderrors.New("no pgrep")}}
	_, err := Stop(context.Background(), procs, []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}

func TestStop_SkipsOwnProcess(t *testing.T) {
	procs := &fakeProcesses{matches: map[string][]int{"lowvr": {os.Getpid()}}}
	res, err := Stop(context.Background(), procs, []string{"lowvr", "fallback"})
	require.NoError(t, err)
	assert.Empty(t, res.Pattern)
	assert.Empty(t, procs.terminated)
}

func TestParsePIDs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int
	}{
		{name: "empty", in: "", want: nil},
		{name: "one per line", in: "12\n345\n", want: []int{12, 345}},
		{name: "whitespace and junk", in: " 7 \n\nabc\n-1\n8", want: []int{7, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePIDs([]byte(tt.in)))
		})
	}
}

func TestLocal_FindAndTerminate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs pgrep and signals")
	}
	if _, err := osexec.LookPath("pgrep"); err != nil {
		t.Skip("pgrep not installed")
	}

	cmd := osexec.Command("sleep", "31.4159")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	var pids []int
	require.Eventually(t, func() bool {
		var err error
		pids, err = Local{}.Find(context.Background(), `sleep 31\.4159`)
		return err == nil && len(pids) > 0
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, pids, cmd.Process.Pid)

	require.NoError(t, Local{}.Terminate(cmd.Process.Pid))
	err := cmd.Wait()
	require.Error(t, err, "sleep should die from SIGTERM")
}

func TestLocal_FindNoMatch(t *testing.T) {
	if _, err := osexec.LookPath("pgrep"); err != nil {
		t.Skip("pgrep not installed")
	}
	pids, err := Local{}.Find(context.Background(), "lowvr-no-process-has-this-name-[0-9]{12}")
	require.NoError(t, err)
	assert.Empty(t, pids)
}
