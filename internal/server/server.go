// Package server exposes a wandb directory over a small JSON REST API, the
// same data the dashboard reads, so a remote dashboard can attach to it.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/dimfeld/httptreemux"

	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/exec"
	"github.com/MandiZhao/lowvr/internal/fetch"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
)

const shutdownTimeout = 5 * time.Second

// Options configure a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Concurrency and Timeout bound the per-run loads behind /api/compare.
	Concurrency int
	Timeout     time.Duration

	// Processes finds and signals the processes behind running runs.
	// Defaults to pgrep and SIGTERM on this machine.
	Processes exec.Processes

	Logger logger.Logger
}

// Server serves the REST API for one wandb directory.
type Server struct {
	loader  *runs.Loader
	sets    *runs.RunSets
	fetcher *fetch.Fetcher
	procs   exec.Processes
	log     logger.Logger
	router  *httptreemux.TreeMux
	http    *http.Server
}

// New creates a server over loader and registers its routes.
func New(loader *runs.Loader, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	procs := opts.Processes
	if procs == nil {
		procs = exec.Local{}
	}

	router := httptreemux.New()
	router.RedirectTrailingSlash = false

	s := &Server{
		loader:  loader,
		sets:    runs.NewRunSets(),
		fetcher: fetch.NewFetcher(fetch.NewLocalSource(loader), opts.Concurrency, opts.Timeout, log),
		procs:   procs,
		log:     log,
		router:  router,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	router.NotFoundHandler = func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found")
	}
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		s.log.Error("panic serving %s %s: %v", r.Method, r.URL.Path, v)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.GET("/api/runs", s.handleListRuns)
	r.GET("/api/runs/:id", s.handleGetRun)
	r.DELETE("/api/runs/:id", s.handleDeleteRun)
	r.POST("/api/runs/:id/stop", s.handleStopRun)
	r.GET("/api/runs/:id/metrics", s.handleMetrics)
	r.GET("/api/runs/:id/available-metrics", s.handleAvailableMetrics)
	r.GET("/api/runs/:id/videos", s.handleVideos)
	r.GET("/api/media/:id/*path", s.handleMedia)
	r.POST("/api/refresh", s.handleRefresh)
	r.GET("/api/config-keys", s.handleConfigKeys)
	r.GET("/api/run-sets", s.handleListRunSets)
	r.POST("/api/run-sets", s.handleUpsertRunSet)
	r.DELETE("/api/run-sets/:id", s.handleDeleteRunSet)
	r.GET("/api/compare", s.handleCompare)
}

// Handler returns the router wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(cors(s.router))
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()
	s.log.Info("serving %s at http://%s", s.loader.Dir(), ln.Addr())

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrServe, "Server stopped unexpectedly", "")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return errors.WrapWithCode(err, errors.ErrServe, "Graceful shutdown failed", "")
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.WrapWithCode(err, errors.ErrServe, "Server stopped unexpectedly", "")
	}
	return nil
}

// ListenAndServe binds the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			"Can't listen on "+s.http.Addr,
			"Is another process using the port? Try --port with a different value")
	}
	return s.Serve(ctx, ln)
}
