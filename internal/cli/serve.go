package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/MandiZhao/lowvr/internal/doctor"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/server"
)

type serveOptions struct {
	Host string
	Port int
}

// serveCommand runs the REST API until interrupted.
func serveCommand(ctx context.Context, args []string, opts serveOptions) error {
	e, err := loadEnv(args, "")
	if err != nil {
		return err
	}
	if err := e.requireLocal("serve"); err != nil {
		return err
	}
	if err := doctor.Preflight(e.loader, e.log); err != nil {
		return err
	}

	sc := e.cfg.Server
	if opts.Host != "" {
		sc.Host = opts.Host
	}
	if opts.Port != 0 {
		sc.Port = opts.Port
	}

	srv := server.New(e.loader, server.Options{
		Addr:         sc.Addr(),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		Concurrency:  e.cfg.Fetch.Concurrency,
		Timeout:      e.cfg.Fetch.Timeout,
		Logger:       logger.NewEnvLogger("server"),
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
