package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/MandiZhao/lowvr/internal/errors"
)

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.code == 0 {
			rec.code = http.StatusOK
		}
		elapsed := time.Since(start).Round(time.Microsecond)
		if rec.code >= 500 {
			s.log.Warn("%s %s %d %s", r.Method, r.URL.Path, rec.code, elapsed)
			return
		}
		s.log.Debug("%s %s %d %s", r.Method, r.URL.Path, rec.code, elapsed)
	})
}

// cors allows any origin; preflight requests are answered directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// writeError maps structured errors onto HTTP statuses: unknown runs are 404,
// bad input is 400, everything else is 500.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrRun:
		code = http.StatusNotFound
	case errors.ErrInput:
		code = http.StatusBadRequest
	}

	detail := err.Error()
	var lvErr *errors.Error
	if stderrors.As(err, &lvErr) {
		detail = lvErr.Message
	}
	writeDetail(w, code, detail)
}
