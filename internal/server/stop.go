package server

import (
	"fmt"
	"net/http"

	"github.com/MandiZhao/lowvr/internal/exec"
	"github.com/MandiZhao/lowvr/internal/runs"
)

type stopResponse struct {
	Message        string `json:"message"`
	StoppedPIDs    []int  `json:"stopped_pids"`
	FailedPIDs     []int  `json:"failed_pids"`
	MatchedPattern string `json:"matched_pattern"`
}

// handleStopRun sends SIGTERM to the process writing a running run. The
// process is found by command line, trying the run's most specific
// identifiers first.
func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id := params["id"]
	run, err := s.loader.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(run.Metadata) == 0 {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Run %s has no metadata", id))
		return
	}
	state, _ := run.Metadata["state"].(string)
	if state != runs.StateRunning {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Run is not in 'running' state (state: %s)", state))
		return
	}
	patterns, ok := runs.ProcessPatterns(run)
	if !ok {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Run %s has no program path in metadata", id))
		return
	}

	res, err := exec.Stop(r.Context(), s.procs, patterns)
	if res.Pattern == "" {
		if err != nil {
			writeError(w, err)
			return
		}
		tried := patterns
		if len(tried) > 3 {
			tried = tried[:3]
		}
		writeDetail(w, http.StatusNotFound, fmt.Sprintf(
			"No running process found. Tried matching: %q. The process may have already finished.", tried))
		return
	}
	if len(res.Stopped) == 0 && len(res.Failed) > 0 {
		writeDetail(w, http.StatusForbidden, fmt.Sprintf("Permission denied to stop process(es): %v", res.Failed))
		return
	}
	if err != nil {
		if len(res.Stopped) == 0 {
			writeError(w, err)
			return
		}
		s.log.Warn("stopping run %s: %v", id, err)
	}

	s.loader.ClearCache()
	s.log.Info("sent SIGTERM to %v for run %s (pattern %q)", res.Stopped, id, res.Pattern)
	writeJSON(w, http.StatusOK, stopResponse{
		Message:        fmt.Sprintf("Sent SIGTERM to stop run %s", id),
		StoppedPIDs:    res.Stopped,
		FailedPIDs:     res.Failed,
		MatchedPattern: res.Pattern,
	})
}
