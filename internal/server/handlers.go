package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/MandiZhao/lowvr/internal/compare"
	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/runs"
)

var mediaTypes = map[string]string{
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// runSummary is the listing shape of a run: enough to filter and label it
// without shipping its summary.
type runSummary struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"display_name"`
	CreatedAt   interface{}            `json:"created_at"`
	IsOffline   bool                   `json:"is_offline"`
	HasVideos   bool                   `json:"has_videos"`
	State       interface{}            `json:"state"`
	Metadata    map[string]interface{} `json:"metadata"`
	Config      map[string]interface{} `json:"config"`
}

func summarize(r runs.Run) runSummary {
	meta := map[string]interface{}{"host": nil, "gpu": nil, "args": nil, "program": nil}
	for k := range meta {
		if v, ok := r.Metadata[k]; ok {
			meta[k] = v
		}
	}
	var state interface{}
	if r.State != "" {
		state = r.State
	}
	var created interface{}
	if r.CreatedAt != nil {
		created = r.CreatedAt
	}
	return runSummary{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		CreatedAt:   created,
		IsOffline:   r.IsOffline,
		HasVideos:   r.HasVideos,
		State:       state,
		Metadata:    meta,
		Config:      r.Config,
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	found, err := s.loader.Discover()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]runSummary, 0, len(found))
	for _, run := range found {
		out = append(out, summarize(run))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, params map[string]string) {
	run, err := s.loader.Get(params["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id := params["id"]
	run, err := s.loader.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.loader.Delete(id); err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete run: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted successfully", id),
		"path":    run.Dir,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, params map[string]string) {
	keys := r.URL.Query()["keys"]
	series, err := s.loader.Metrics(params["id"], keys)
	if err != nil {
		writeError(w, err)
		return
	}
	s.log.Debug("metrics for %s: %d keys", params["id"], len(series))
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleAvailableMetrics(w http.ResponseWriter, r *http.Request, params map[string]string) {
	keys, err := s.loader.AvailableMetrics(params["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request, params map[string]string) {
	videos, err := s.loader.Videos(params["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request, params map[string]string) {
	rel, err := url.PathUnescape(params["path"])
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Bad media path")
		return
	}
	p, err := s.loader.MediaPath(params["id"], rel)
	if err != nil {
		writeError(w, err)
		return
	}

	fs := s.loader.Fs()
	info, err := fs.Stat(p)
	if err != nil || info.IsDir() {
		writeDetail(w, http.StatusNotFound, "Media file not found: "+rel)
		return
	}
	f, err := fs.Open(p)
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	contentType, ok := mediaTypes[strings.ToLower(filepath.Ext(p))]
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	s.loader.ClearCache()
	found, err := s.loader.Discover()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Cache refreshed",
		"run_count": len(found),
	})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if _, err := s.loader.Discover(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.loader.ConfigKeys())
}

func (s *Server) handleListRunSets(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, s.sets.List())
}

func (s *Server) handleUpsertRunSet(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var set runs.RunSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid run set: "+err.Error())
		return
	}
	saved, err := s.sets.Upsert(set)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteRunSet(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if !s.sets.Delete(params["id"]) {
		writeDetail(w, http.StatusNotFound, "Run set not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// compareResponse is the aligned view of several runs, ready to chart.
type compareResponse struct {
	XAxisKey     string                   `json:"x_axis_key"`
	XAxisOptions []string                 `json:"x_axis_options"`
	Series       []compare.AlignedSeries  `json:"series"`
	Ranges       map[string]compare.Range `json:"ranges"`
	Failed       map[string]string        `json:"failed,omitempty"`
}

// handleCompare loads several runs at once and aligns their metrics by index.
// Query: runs=a,b (or repeated), metrics=loss,acc (optional, defaults to the
// union of available metrics), x=_step (optional).
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	runIDs := listParam(q, "runs")
	if len(runIDs) == 0 {
		writeError(w, errors.New(errors.ErrInput, "At least one run is required (?runs=a,b)", ""))
		return
	}

	metrics := listParam(q, "metrics")
	if len(metrics) == 0 {
		catalog, err := s.fetcher.Catalog(r.Context(), runIDs)
		if err != nil && len(catalog) == 0 {
			writeError(w, err)
			return
		}
		metrics = catalog
	}

	res := s.fetcher.FetchAll(r.Context(), runIDs, metrics)
	if len(res.Series) == 0 && res.Err != nil {
		writeDetail(w, http.StatusNotFound, "None of the requested runs could be loaded")
		return
	}

	options := compare.XAxisOptions(res.Series)
	xKey := q.Get("x")
	if xKey == "" && len(options) > 0 {
		xKey = options[0]
	}

	loaded := make([]string, 0, len(runIDs))
	for _, id := range runIDs {
		if _, ok := res.Series[id]; ok {
			loaded = append(loaded, id)
		}
	}

	aligned := compare.Align(loaded, res.Series, metrics, xKey)
	out := compareResponse{
		XAxisKey:     xKey,
		XAxisOptions: options,
		Series:       aligned,
		Ranges:       compare.Ranges(aligned),
	}
	if len(res.Failed) > 0 {
		out.Failed = make(map[string]string, len(res.Failed))
		for id, err := range res.Failed {
			out.Failed[id] = causeMessage(err)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// causeMessage is the innermost message of a structured error chain.
func causeMessage(err error) string {
	var lvErr *errors.Error
	for stderrors.As(err, &lvErr) && lvErr.Cause != nil {
		err = lvErr.Cause
	}
	if stderrors.As(err, &lvErr) {
		return lvErr.Message
	}
	return strings.TrimSpace(err.Error())
}

// listParam accepts both repeated (?k=a&k=b) and comma-separated (?k=a,b) values.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
