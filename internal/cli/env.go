package cli

import (
	"github.com/spf13/afero"

	"github.com/MandiZhao/lowvr/internal/config"
	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/fetch"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
	"github.com/MandiZhao/lowvr/internal/ui"
)

// env is what every command starts from: validated config, the wandb
// directory and a source of runs.
type env struct {
	cfg *config.Config
	// loader is nil when runs come from a remote server.
	loader *runs.Loader
	source fetch.Source
	remote string
	log    logger.Logger
	tty    bool
}

// loadEnv resolves config and the run source. A positional wandb_dir
// argument overrides wandb_dir from config; a non-empty remote overrides
// fetch.remote.
func loadEnv(args []string, remote string) (*env, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	e := &env{
		cfg: cfg,
		log: logger.NewEnvLogger("cli"),
		tty: stdoutIsTerminal(),
	}
	if !noColor {
		ui.SetColorMode(cfg.Output.Color, e.tty)
	}

	dir := cfg.WandbDir
	if len(args) > 0 && args[0] != "" {
		dir = config.ExpandTilde(args[0])
	}

	e.remote = cfg.Fetch.Remote
	if remote != "" {
		e.remote = remote
	}
	if e.remote != "" {
		src, err := fetch.NewHTTPSource(e.remote, fetch.HTTPOptions{
			Retries:    uint(cfg.Fetch.Retries),
			RetryDelay: cfg.Fetch.RetryDelay,
			Logger:     logger.NewEnvLogger("fetch"),
		})
		if err != nil {
			return nil, err
		}
		e.source = src
		return e, nil
	}

	e.loader = runs.NewLoader(afero.NewOsFs(), dir, logger.NewEnvLogger("runs"))
	e.source = fetch.NewLocalSource(e.loader)
	return e, nil
}

// fetcher builds a fetcher over the env's source with the configured limits.
func (e *env) fetcher() *fetch.Fetcher {
	return fetch.NewFetcher(e.source, e.cfg.Fetch.Concurrency, e.cfg.Fetch.Timeout,
		logger.NewEnvLogger("fetch"))
}

// requireLocal rejects commands that only make sense on a local directory.
func (e *env) requireLocal(command string) error {
	if e.loader == nil {
		return errors.New(errors.ErrInput,
			command+" reads a local wandb directory and can't use a remote",
			"Drop --remote, or unset fetch.remote in your config")
	}
	return nil
}
